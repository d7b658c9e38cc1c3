package abi

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/pkg/errors"
)

const (
	MethodOfCheckIn = "checkIn"
)

// CheckIn is the ABI of the daily check-in contract.
const CheckIn = `[{"inputs":[],"name":"checkIn","outputs":[],"stateMutability":"nonpayable","type":"function"}]`

type Abi struct {
	contractAbi abi.ABI
}

func New(abiStr string) (*Abi, error) {
	a, err := abi.JSON(strings.NewReader(abiStr))
	if err != nil {
		return nil, errors.Wrap(err, "parse abi")
	}

	return &Abi{contractAbi: a}, nil
}

func (a *Abi) PackInput(abiMethod string, params ...interface{}) ([]byte, error) {
	if _, ok := a.contractAbi.Methods[abiMethod]; !ok {
		return nil, errors.Errorf("method %s not found in abi", abiMethod)
	}
	input, err := a.contractAbi.Pack(abiMethod, params...)
	if err != nil {
		return nil, errors.Wrap(err, "pack input")
	}
	return input, nil
}
