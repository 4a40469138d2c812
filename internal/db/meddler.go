package db

import (
	"database/sql"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/russross/meddler"
)

func init() {
	meddler.Default = meddler.SQLite

	meddler.Register("address", AddressMeddler{})
	meddler.Register("bigint", BigIntMeddler{})
}

// AddressMeddler stores common.Address as lower-cased 0x hex so that
// lookups by address are case-insensitive by construction.
type AddressMeddler struct{}

func (AddressMeddler) PreRead(fieldAddr any) (scanTarget any, err error) {
	return new(sql.NullString), nil
}

func (AddressMeddler) PostRead(fieldAddr, scanTarget any) error {
	ns, ok := scanTarget.(*sql.NullString)
	if !ok {
		return fmt.Errorf("expected *sql.NullString, got %T", scanTarget)
	}

	ptr, ok := fieldAddr.(*common.Address)
	if !ok {
		return fmt.Errorf("expected *common.Address, got %T", fieldAddr)
	}

	if !ns.Valid {
		*ptr = common.Address{}
		return nil
	}

	*ptr = common.HexToAddress(ns.String)
	return nil
}

func (AddressMeddler) PreWrite(field any) (saveValue any, err error) {
	address, ok := field.(common.Address)
	if !ok {
		return nil, fmt.Errorf("expected common.Address, got %T", field)
	}

	return AddressKey(address), nil
}

// AddressKey is the canonical lower-case form an address is stored and queried with.
func AddressKey(address common.Address) string {
	return strings.ToLower(address.Hex())
}

// BigIntMeddler stores *big.Int as a base-10 string; values routinely exceed 64 bits.
type BigIntMeddler struct{}

func (BigIntMeddler) PreRead(fieldAddr any) (scanTarget any, err error) {
	return new(sql.NullString), nil
}

func (BigIntMeddler) PostRead(fieldAddr, scanTarget any) error {
	ns, ok := scanTarget.(*sql.NullString)
	if !ok {
		return fmt.Errorf("expected *sql.NullString, got %T", scanTarget)
	}

	ptr, ok := fieldAddr.(**big.Int)
	if !ok {
		return fmt.Errorf("expected **big.Int, got %T", fieldAddr)
	}

	if !ns.Valid {
		*ptr = nil
		return nil
	}

	value, ok := new(big.Int).SetString(ns.String, 10)
	if !ok {
		return fmt.Errorf("invalid integer value %q", ns.String)
	}

	*ptr = value
	return nil
}

func (BigIntMeddler) PreWrite(field any) (saveValue any, err error) {
	value, ok := field.(*big.Int)
	if !ok {
		return nil, fmt.Errorf("expected *big.Int, got %T", field)
	}

	if value == nil {
		return nil, nil
	}

	return value.String(), nil
}
