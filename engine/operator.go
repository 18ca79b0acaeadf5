package engine

import (
	"encoding/json"
	"fmt"
	"os"

	ethcommon "github.com/ethereum/go-ethereum/common"
)

// Operator is one entry of the operators bootstrap file.
type Operator struct {
	Address ethcommon.Address
}

// jsonOperator is used for JSON unmarshaling
type jsonOperator struct {
	Address string `json:"address"`
}

// UnmarshalJSON implements json.Unmarshaler interface
func (o *Operator) UnmarshalJSON(data []byte) error {
	var jo jsonOperator
	if err := json.Unmarshal(data, &jo); err != nil {
		return err
	}

	if !ethcommon.IsHexAddress(jo.Address) {
		return fmt.Errorf("invalid operator address %q", jo.Address)
	}
	o.Address = ethcommon.HexToAddress(jo.Address)
	return nil
}

// LoadOperators reads the initial operator set from a JSON file containing a
// list of {"address": "0x..."} entries.
func LoadOperators(filePath string) ([]ethcommon.Address, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var operatorList []*Operator
	if err := json.Unmarshal(data, &operatorList); err != nil {
		return nil, err
	}

	addresses := make([]ethcommon.Address, 0, len(operatorList))
	for _, operator := range operatorList {
		addresses = append(addresses, operator.Address)
	}
	return addresses, nil
}
