package nats

import (
	"encoding/json"
	"fmt"
	"paygate/pkg/nats/natsdomain"
	"paygate/pkg/utils"

	"github.com/shopspring/decimal"
)

// checks if there is an error in the response. if there is, it returns true and the error message
func HelpersIsError(data []byte) (bool, string) {
	if len(data) < 6 {
		return false, ""
	}

	if string(data[0:6]) == "error:" {
		return true, string(data[6:])

	}
	return false, ""
}

// allocate wrapper
//
//	network - payment network (eth, erc20, sol, ton, btc, lightning)
//	amount - expected amount in the method currency (used by lightning)
func (n *NatsInfra) ReqAllocate(network string, invoiceId string, amount decimal.Decimal) (*natsdomain.ResAllocate, error) {
	data, err := json.Marshal(natsdomain.ReqAllocate{Network: network, InvoiceId: invoiceId, Amount: amount})
	if err != nil {
		return nil, err
	}

	resp, err := n.Ns.ReqAndRecv(natsdomain.SubjAllocate, data)
	if err != nil {
		return nil, err
	}

	iserr, errmsg := HelpersIsError(resp)
	if iserr {
		return nil, fmt.Errorf(errmsg)
	}

	allocated, err := utils.Unmarshal[natsdomain.ResAllocate](resp)
	if err != nil {
		return nil, err
	}

	if allocated.IsError {
		return nil, fmt.Errorf(allocated.Message)
	}

	return allocated, nil
}

// returns an identifier to its pool after a failed or cancelled creation
func (n *NatsInfra) ReqRelease(network string, identifier string) error {
	data, err := json.Marshal(natsdomain.ReqRelease{Network: network, Identifier: identifier})
	if err != nil {
		return err
	}

	resp, err := n.Ns.ReqAndRecv(natsdomain.SubjRelease, data)
	if err != nil {
		return err
	}

	iserr, errmsg := HelpersIsError(resp)
	if iserr {
		return fmt.Errorf(errmsg)
	}

	return nil
}
