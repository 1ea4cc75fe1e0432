package contract

import (
	"encoding/json"
	"fmt"
	"math/big"
	"reflect"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	stderr "github.com/pkg/errors"

	"github.com/oasislabs/quorum-functions/errors"
)

// RenderOutputs renders the values returned by a contract function
// as text. A single value is rendered on its own and several values
// as a JSON array. Integers are rendered in decimal, addresses as
// checksummed hex and byte arrays as 0x prefixed hex
func RenderOutputs(values []interface{}) (string, errors.Err) {
	switch len(values) {
	case 0:
		return "", nil
	case 1:
		if s, ok := scalar(values[0]); ok {
			return s, nil
		}
	}

	normalized := make([]interface{}, 0, len(values))
	for _, v := range values {
		normalized = append(normalized, normalize(reflect.ValueOf(v)))
	}

	var p []byte
	var err error
	if len(values) == 1 {
		p, err = json.Marshal(normalized[0])
	} else {
		p, err = json.Marshal(normalized)
	}
	if err != nil {
		return "", errors.New(errors.ErrRenderResult, stderr.Wrap(err, "failed to render outputs"))
	}

	return string(p), nil
}

func scalar(v interface{}) (string, bool) {
	switch v := v.(type) {
	case *big.Int:
		return v.String(), true
	case common.Address:
		return v.Hex(), true
	case common.Hash:
		return v.Hex(), true
	case []byte:
		return hexutil.Encode(v), true
	case string:
		return v, true
	case bool, int8, int16, int32, int64, uint8, uint16, uint32, uint64:
		return fmt.Sprint(v), true
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Array && rv.Type().Elem().Kind() == reflect.Uint8 {
		return hexutil.Encode(arrayBytes(rv)), true
	}

	return "", false
}

// normalize converts v into a value that encodes to JSON the same
// way it renders as text
func normalize(v reflect.Value) interface{} {
	if !v.IsValid() {
		return nil
	}

	switch x := v.Interface().(type) {
	case *big.Int:
		if x == nil {
			return nil
		}
		return json.Number(x.String())
	case common.Address:
		return x.Hex()
	case []byte:
		return hexutil.Encode(x)
	}

	switch v.Kind() {
	case reflect.Array:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return hexutil.Encode(arrayBytes(v))
		}
		fallthrough
	case reflect.Slice:
		items := make([]interface{}, 0, v.Len())
		for i := 0; i < v.Len(); i++ {
			items = append(items, normalize(v.Index(i)))
		}
		return items
	case reflect.Struct:
		fields := make(map[string]interface{})
		for i := 0; i < v.NumField(); i++ {
			if v.Type().Field(i).IsExported() {
				fields[v.Type().Field(i).Name] = normalize(v.Field(i))
			}
		}
		return fields
	default:
		return v.Interface()
	}
}

func arrayBytes(v reflect.Value) []byte {
	b := make([]byte, v.Len())
	reflect.Copy(reflect.ValueOf(b), v)
	return b
}
