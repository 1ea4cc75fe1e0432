package contract_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"

	"github.com/oasislabs/quorum-functions/contract"
	"github.com/oasislabs/quorum-functions/contract/contracttest"
	"github.com/oasislabs/quorum-functions/errors"
)

func TestParseArtifactTruffle(t *testing.T) {
	artifact, err := contract.ParseArtifact([]byte(contracttest.StorageArtifact))

	assert.Nil(t, err)
	assert.Equal(t, contracttest.StorageABI, artifact.ABI)
	assert.Equal(t, common.FromHex(contracttest.StorageBytecode), artifact.Bytecode)
	assert.Contains(t, artifact.Interface.Methods, "getValue")
}

func TestParseArtifactBytecodeObject(t *testing.T) {
	for _, doc := range []string{
		`{"abi":[],"bytecode":{"object":"6080"}}`,
		`{"abi":[],"bytecode":{"value":"0x6080"}}`,
		`{"abi":[],"bytecode":{"Value":"0x6080"}}`,
	} {
		artifact, err := contract.ParseArtifact([]byte(doc))

		assert.Nil(t, err, doc)
		assert.Equal(t, []byte{0x60, 0x80}, artifact.Bytecode, doc)
	}
}

func TestParseArtifactABIString(t *testing.T) {
	artifact, err := contract.ParseArtifact([]byte(`{"abi":"[ {\"type\":\"function\",\"name\":\"f\",\"inputs\":[],\"outputs\":[]} ]"}`))

	assert.Nil(t, err)
	assert.Equal(t, `[{"type":"function","name":"f","inputs":[],"outputs":[]}]`, artifact.ABI)
	assert.Contains(t, artifact.Interface.Methods, "f")
}

func TestParseArtifactMissingBytecode(t *testing.T) {
	artifact, err := contract.ParseArtifact([]byte(`{"abi":[]}`))
	assert.Nil(t, err)

	_, err = artifact.DeployCode()
	assert.Equal(t, errors.ErrArtifactMissingBytecode, err.Code())
}

func TestParseArtifactMalformed(t *testing.T) {
	for _, doc := range []string{
		`not json`,
		`{"bytecode":"0x00"}`,
		`{"abi":{"type":"function"}}`,
		`{"abi":[{"type":"function","inputs":[{"type":"uint7"}]}]}`,
		`{"abi":[],"bytecode":"0xzz"}`,
		`{"abi":[],"bytecode":12}`,
	} {
		_, err := contract.ParseArtifact([]byte(doc))

		assert.Equal(t, errors.ErrArtifactFormat, err.Code(), doc)
	}
}

func TestArtifactMethodUnknown(t *testing.T) {
	artifact := contracttest.NewStorageArtifact()

	_, err := artifact.Method("transfer")

	assert.Equal(t, errors.ErrUnknownFunction, err.Code())
}
