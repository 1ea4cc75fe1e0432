package contract

import (
	"encoding/json"
	"fmt"
	"math/big"
	"reflect"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	stderr "github.com/pkg/errors"
	"github.com/spf13/cast"

	"github.com/oasislabs/quorum-functions/errors"
)

var bigIntType = reflect.TypeOf(&big.Int{})

// ConvertArguments converts the JSON decoded params to the Go
// values the abi encoder expects for args. Numbers are expected to
// be decoded as json.Number
func ConvertArguments(args abi.Arguments, params []interface{}) ([]interface{}, errors.Err) {
	if len(args) != len(params) {
		return nil, errors.New(errors.ErrInvalidArguments,
			fmt.Errorf("expected %d arguments but got %d", len(args), len(params)))
	}

	values := make([]interface{}, 0, len(params))
	for i, arg := range args {
		v, err := convert(arg.Type, params[i])
		if err != nil {
			name := arg.Name
			if len(name) == 0 {
				name = fmt.Sprintf("#%d", i)
			}
			return nil, errors.New(errors.ErrInvalidArguments,
				stderr.Wrapf(err, "argument %s of type %s", name, arg.Type.String()))
		}

		values = append(values, v.Interface())
	}

	return values, nil
}

func convert(t abi.Type, param interface{}) (reflect.Value, error) {
	switch t.T {
	case abi.IntTy, abi.UintTy:
		return convertInteger(t, param)

	case abi.BoolTy:
		b, err := cast.ToBoolE(param)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(b), nil

	case abi.StringTy:
		s, err := cast.ToStringE(param)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(s), nil

	case abi.AddressTy:
		s, ok := param.(string)
		if !ok || !common.IsHexAddress(s) {
			return reflect.Value{}, fmt.Errorf("%v is not a hex address", param)
		}
		return reflect.ValueOf(common.HexToAddress(s)), nil

	case abi.BytesTy:
		b, err := decodeHex(param)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(b), nil

	case abi.FixedBytesTy, abi.HashTy:
		b, err := decodeHex(param)
		if err != nil {
			return reflect.Value{}, err
		}

		v := reflect.New(t.GetType()).Elem()
		if len(b) > v.Len() {
			return reflect.Value{}, fmt.Errorf("value has %d bytes, expected at most %d", len(b), v.Len())
		}
		reflect.Copy(v, reflect.ValueOf(b))
		return v, nil

	case abi.SliceTy, abi.ArrayTy:
		return convertList(t, param)

	default:
		return reflect.Value{}, fmt.Errorf("type %s is not supported", t.String())
	}
}

func convertList(t abi.Type, param interface{}) (reflect.Value, error) {
	items, ok := param.([]interface{})
	if !ok {
		return reflect.Value{}, fmt.Errorf("%v is not an array", param)
	}

	var v reflect.Value
	if t.T == abi.ArrayTy {
		if len(items) != t.Size {
			return reflect.Value{}, fmt.Errorf("array has %d elements, expected %d", len(items), t.Size)
		}
		v = reflect.New(t.GetType()).Elem()
	} else {
		v = reflect.MakeSlice(t.GetType(), len(items), len(items))
	}

	for i, item := range items {
		e, err := convert(*t.Elem, item)
		if err != nil {
			return reflect.Value{}, stderr.Wrapf(err, "element %d", i)
		}
		v.Index(i).Set(e)
	}

	return v, nil
}

func convertInteger(t abi.Type, param interface{}) (reflect.Value, error) {
	n, err := toBigInt(param)
	if err != nil {
		return reflect.Value{}, err
	}

	if !fits(t, n) {
		return reflect.Value{}, fmt.Errorf("%s overflows %s", n.String(), t.String())
	}

	goType := t.GetType()
	if goType == bigIntType {
		return reflect.ValueOf(n), nil
	}

	v := reflect.New(goType).Elem()
	if t.T == abi.UintTy {
		v.SetUint(n.Uint64())
	} else {
		v.SetInt(n.Int64())
	}

	return v, nil
}

// fits checks that n is in the range of the integer type t
func fits(t abi.Type, n *big.Int) bool {
	if t.T == abi.UintTy {
		return n.Sign() >= 0 && n.BitLen() <= t.Size
	}

	limit := new(big.Int).Lsh(big.NewInt(1), uint(t.Size-1))
	if n.Sign() < 0 {
		return new(big.Int).Neg(n).Cmp(limit) <= 0
	}

	return n.Cmp(limit) < 0
}

// toBigInt accepts JSON numbers and decimal or 0x prefixed hex
// strings holding an integer
func toBigInt(param interface{}) (*big.Int, error) {
	var s string
	switch p := param.(type) {
	case json.Number:
		s = p.String()
	case string:
		s = strings.TrimSpace(p)
	case float64:
		if p != float64(int64(p)) {
			return nil, fmt.Errorf("%v is not an integer", p)
		}
		return big.NewInt(int64(p)), nil
	default:
		i, err := cast.ToInt64E(param)
		if err != nil {
			return nil, err
		}
		return big.NewInt(i), nil
	}

	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s, base = s[2:], 16
	}

	n, ok := new(big.Int).SetString(s, base)
	if !ok {
		return nil, fmt.Errorf("%s is not an integer", s)
	}

	return n, nil
}

func decodeHex(param interface{}) ([]byte, error) {
	s, ok := param.(string)
	if !ok {
		return nil, fmt.Errorf("%v is not a hex string", param)
	}

	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}

	return hexutil.Decode(s)
}
