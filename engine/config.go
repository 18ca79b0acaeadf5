package engine

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/BurntSushi/toml"
	ethcommon "github.com/ethereum/go-ethereum/common"
)

// Config carries the identity of one engine instance. ChainID and
// VerifyingContract are mixed into every signature digest, so two engines
// with different configs never accept each other's signatures.
type Config struct {
	ChainID           *big.Int
	VerifyingContract ethcommon.Address
	Admin             ethcommon.Address
	Operators         []ethcommon.Address
	DatabasePath      string
}

// DatabaseDriver returns the database/sql driver name for the configured
// database path.
func (c *Config) DatabaseDriver() string {
	if strings.HasSuffix(c.DatabasePath, ".sqlite") {
		return "sqlite3"
	}
	return "postgres"
}

// NewConfig builds a config from raw flag values. The operators file is
// optional; an engine with an empty operator set can still serve revocations.
func NewConfig(chainID uint64, verifyingContract string, admin string, operatorsFilePath string, databasePath string) (*Config, error) {
	if !ethcommon.IsHexAddress(verifyingContract) {
		return nil, fmt.Errorf("invalid verifying contract address %q", verifyingContract)
	}
	if !ethcommon.IsHexAddress(admin) {
		return nil, fmt.Errorf("invalid admin address %q", admin)
	}

	var operators []ethcommon.Address
	if operatorsFilePath != "" {
		var err error
		operators, err = LoadOperators(operatorsFilePath)
		if err != nil {
			return nil, err
		}
	}

	return &Config{
		ChainID:           new(big.Int).SetUint64(chainID),
		VerifyingContract: ethcommon.HexToAddress(verifyingContract),
		Admin:             ethcommon.HexToAddress(admin),
		Operators:         operators,
		DatabasePath:      databasePath,
	}, nil
}

// fileConfig is the TOML key mapping for the engine config file.
type fileConfig struct {
	ChainID           uint64 `toml:"chain_id"`
	VerifyingContract string `toml:"verifying_contract"`
	Admin             string `toml:"admin"`
	OperatorsFile     string `toml:"operators_file"`
	Database          string `toml:"database"`
}

// LoadConfig reads an engine config from a TOML file.
func LoadConfig(path string) (*Config, error) {
	var raw fileConfig
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return nil, fmt.Errorf("load engine config: %w", err)
	}
	return NewConfig(raw.ChainID, raw.VerifyingContract, raw.Admin, raw.OperatorsFile, raw.Database)
}
