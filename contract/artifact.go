package contract

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	stderr "github.com/pkg/errors"

	"github.com/oasislabs/quorum-functions/errors"
)

// Artifact is the interface description and the deployment
// bytecode of a contract
type Artifact struct {
	// ABI is the canonical string form of the interface description
	ABI string

	// Interface is the parsed interface description
	Interface abi.ABI

	// Bytecode is the deployment payload. It is empty when the
	// artifact does not carry one
	Bytecode []byte
}

// DeployCode returns the deployment payload of the artifact
func (a *Artifact) DeployCode() ([]byte, errors.Err) {
	if len(a.Bytecode) == 0 {
		return nil, errors.New(errors.ErrArtifactMissingBytecode, nil)
	}

	return a.Bytecode, nil
}

// Method looks up the function name in the interface description
func (a *Artifact) Method(name string) (abi.Method, errors.Err) {
	method, ok := a.Interface.Methods[name]
	if !ok {
		return abi.Method{}, errors.New(errors.ErrUnknownFunction,
			stderr.Errorf("function %s not found in contract interface", name))
	}

	return method, nil
}

type artifactDocument struct {
	ABI      json.RawMessage `json:"abi"`
	Bytecode json.RawMessage `json:"bytecode"`
}

// ParseArtifact parses a contract artifact document. Both the
// truffle layout, where bytecode is a hex string, and the solc
// layout, where bytecode is an object holding the hex string in
// its object field, are accepted. The abi may be embedded as an
// array or as a JSON encoded string
func ParseArtifact(p []byte) (*Artifact, errors.Err) {
	var doc artifactDocument
	if err := json.Unmarshal(p, &doc); err != nil {
		return nil, errors.New(errors.ErrArtifactFormat, stderr.Wrap(err, "failed to decode artifact"))
	}

	abiJSON, err := canonicalABI(doc.ABI)
	if err != nil {
		return nil, errors.New(errors.ErrArtifactFormat, err)
	}

	iface, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		return nil, errors.New(errors.ErrArtifactFormat, stderr.Wrap(err, "failed to parse abi"))
	}

	bytecode, err := parseBytecode(doc.Bytecode)
	if err != nil {
		return nil, errors.New(errors.ErrArtifactFormat, err)
	}

	return &Artifact{ABI: abiJSON, Interface: iface, Bytecode: bytecode}, nil
}

func canonicalABI(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", stderr.New("artifact has no abi")
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", stderr.Wrap(err, "failed to decode abi string")
		}
		raw = json.RawMessage(s)
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return "", stderr.Wrap(err, "abi must be an array")
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return "", stderr.Wrap(err, "failed to compact abi")
	}

	return buf.String(), nil
}

func parseBytecode(raw json.RawMessage) ([]byte, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	var code string
	switch raw[0] {
	case '"':
		if err := json.Unmarshal(raw, &code); err != nil {
			return nil, stderr.Wrap(err, "failed to decode bytecode")
		}
	case '{':
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, stderr.Wrap(err, "failed to decode bytecode object")
		}

		for _, key := range []string{"value", "Value", "object"} {
			if v, ok := fields[key]; ok {
				if err := json.Unmarshal(v, &code); err != nil {
					return nil, stderr.Wrapf(err, "bytecode field %s must be a string", key)
				}
				break
			}
		}
	default:
		return nil, stderr.New("bytecode must be a string or an object")
	}

	code = strings.TrimSpace(code)
	if len(code) == 0 || code == "0x" {
		return nil, nil
	}

	if !strings.HasPrefix(code, "0x") && !strings.HasPrefix(code, "0X") {
		code = "0x" + code
	}

	b, err := hexutil.Decode(code)
	if err != nil {
		return nil, stderr.Wrap(err, "bytecode must be hex encoded")
	}

	return b, nil
}
