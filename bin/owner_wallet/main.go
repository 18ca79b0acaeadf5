package main

import (
	"bufio"
	"encoding/hex"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/big"
	"os"
	"strings"

	ethcommon "github.com/ethereum/go-ethereum/common"

	"github.com/aeviaprotocol/aevia-go/engine"
	"github.com/aeviaprotocol/aevia-go/engine/typeddata"
	"github.com/aeviaprotocol/aevia-go/wallet"
)

// Command represents a CLI command and its handler function
type Command struct {
	Name        string
	Description string
	Usage       string
	Handler     func(args []string) error
}

// CommandRegistry manages the available commands
type CommandRegistry struct {
	commands map[string]Command
}

// NewCommandRegistry creates a new command registry
func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{
		commands: make(map[string]Command),
	}
}

// RegisterCommand adds a new command to the registry
func (r *CommandRegistry) RegisterCommand(cmd Command) {
	r.commands[strings.ToLower(cmd.Name)] = cmd
}

// GetCommand retrieves a command from the registry
func (r *CommandRegistry) GetCommand(name string) (Command, bool) {
	cmd, exists := r.commands[strings.ToLower(name)]
	return cmd, exists
}

// ListCommands returns a list of all available commands and their descriptions
func (r *CommandRegistry) ListCommands() []Command {
	var cmdList []Command
	for _, cmd := range r.commands {
		cmdList = append(cmdList, cmd)
	}
	return cmdList
}

// CLI represents the command-line interface
type CLI struct {
	registry *CommandRegistry
	reader   *bufio.Reader
	domain   typeddata.Domain
	signer   *wallet.Signer
}

// NewCLI creates a new CLI instance
func NewCLI(domain typeddata.Domain) *CLI {
	cli := &CLI{
		registry: NewCommandRegistry(),
		reader:   bufio.NewReader(os.Stdin),
		domain:   domain,
	}
	cli.registerCommands()
	return cli
}

// parseInput splits the input into command and arguments
func parseInput(input string) (string, []string) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return "", nil
	}

	command := strings.ToLower(parts[0])
	var args []string
	if len(parts) > 1 {
		args = parts[1:]
	}

	return command, args
}

// InitializeWallet handles the wallet setup process
func (cli *CLI) InitializeWallet() error {
	fmt.Println("Welcome to the Aevia owner wallet CLI!")
	fmt.Println("Enter your private key as hex, or 'new' to generate one:")

	for {
		fmt.Print("Enter your private key: ")
		input, err := cli.reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("error reading input: %w", err)
		}
		input = strings.TrimSpace(input)

		if strings.EqualFold(input, "new") {
			signer, err := wallet.NewSigner()
			if err != nil {
				return fmt.Errorf("generate key: %w", err)
			}
			cli.signer = signer
			fmt.Printf("Generated key for %s\n", signer.Address().Hex())
			fmt.Printf("Private key (keep safe): %s\n", signer.PrivateKeyHex())
			return nil
		}

		signer, err := wallet.NewSignerFromHex(input)
		if err != nil {
			fmt.Println("Invalid key. Please enter a valid 32 byte hex string.")
			continue
		}
		cli.signer = signer
		return nil
	}
}

// legacyFile is the JSON shape of an unsigned legacy. Numeric fields are
// decimal strings so arbitrarily large values survive parsing.
type legacyFile struct {
	LegacyID     string `json:"legacy_id"`
	TokenType    uint8  `json:"token_type"`
	TokenAddress string `json:"token_address"`
	TokenID      string `json:"token_id"`
	Amount       string `json:"amount"`
	To           string `json:"to"`
}

// signedFile is the JSON shape the engine's execute command consumes.
type signedFile struct {
	legacyFile
	From      string `json:"from"`
	Signature string `json:"signature"`
}

func parseBigInt(field, value string) (*big.Int, error) {
	parsed, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("invalid %s: %q", field, value)
	}
	return parsed, nil
}

func (cli *CLI) loadLegacy(path string) (*engine.Legacy, *legacyFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read legacy file: %w", err)
	}

	var file legacyFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, nil, fmt.Errorf("parse legacy file: %w", err)
	}

	legacyID, err := parseBigInt("legacy_id", file.LegacyID)
	if err != nil {
		return nil, nil, err
	}
	tokenID, err := parseBigInt("token_id", file.TokenID)
	if err != nil {
		return nil, nil, err
	}
	amount, err := parseBigInt("amount", file.Amount)
	if err != nil {
		return nil, nil, err
	}

	return &engine.Legacy{
		LegacyID:     legacyID,
		TokenType:    engine.TokenType(file.TokenType),
		TokenAddress: ethcommon.HexToAddress(file.TokenAddress),
		TokenID:      tokenID,
		Amount:       amount,
		From:         cli.signer.Address(),
		To:           ethcommon.HexToAddress(file.To),
	}, &file, nil
}

func (cli *CLI) registerCommands() {
	cli.registry.RegisterCommand(Command{
		Name:        "address",
		Description: "Show the wallet address",
		Usage:       "address",
		Handler: func(args []string) error {
			fmt.Println(cli.signer.Address().Hex())
			return nil
		},
	})

	cli.registry.RegisterCommand(Command{
		Name:        "sign",
		Description: "Sign a legacy from a JSON file and write the signed request",
		Usage:       "sign <legacy-file> [output-file]",
		Handler: func(args []string) error {
			if len(args) < 1 || len(args) > 2 {
				return errors.New("usage: sign <legacy-file> [output-file]")
			}

			legacy, file, err := cli.loadLegacy(args[0])
			if err != nil {
				return err
			}

			signature, err := cli.signer.SignLegacy(cli.domain, legacy)
			if err != nil {
				return fmt.Errorf("sign legacy: %w", err)
			}

			signed := signedFile{
				legacyFile: *file,
				From:       legacy.From.Hex(),
				Signature:  "0x" + hex.EncodeToString(signature),
			}
			output, err := json.MarshalIndent(signed, "", "  ")
			if err != nil {
				return fmt.Errorf("encode signed request: %w", err)
			}

			if len(args) == 2 {
				if err := os.WriteFile(args[1], output, 0o600); err != nil {
					return fmt.Errorf("write signed request: %w", err)
				}
				fmt.Printf("Wrote signed request to %s\n", args[1])
				return nil
			}

			fmt.Println(string(output))
			return nil
		},
	})

	cli.registry.RegisterCommand(Command{
		Name:        "export-key",
		Description: "Print the private key as hex",
		Usage:       "export-key",
		Handler: func(args []string) error {
			fmt.Println(cli.signer.PrivateKeyHex())
			return nil
		},
	})

	cli.registry.RegisterCommand(Command{
		Name:        "help",
		Description: "Show available commands",
		Usage:       "help",
		Handler: func(args []string) error {
			for _, cmd := range cli.registry.ListCommands() {
				fmt.Printf("%-12s %s\n    %s\n", cmd.Name, cmd.Description, cmd.Usage)
			}
			return nil
		},
	})
}

// Run starts the CLI loop
func (cli *CLI) Run() error {
	if err := cli.InitializeWallet(); err != nil {
		return fmt.Errorf("wallet initialization failed: %w", err)
	}

	for {
		fmt.Print("> ")
		input, err := cli.reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("error reading input: %w", err)
		}

		command, args := parseInput(strings.TrimSpace(input))
		if command == "" {
			continue
		}
		if command == "exit" || command == "quit" {
			return nil
		}

		cmd, exists := cli.registry.GetCommand(command)
		if !exists {
			fmt.Printf("Unknown command: %s\n", command)
			continue
		}
		if err := cmd.Handler(args); err != nil {
			fmt.Printf("Error: %v\n", err)
		}
	}
}

func main() {
	var chainID uint64
	var contract string
	flag.Uint64Var(&chainID, "chain-id", 1, "Chain id of the signing domain")
	flag.StringVar(&contract, "contract", "", "Verifying contract address")
	flag.Parse()

	if contract == "" {
		log.Fatal("verifying contract address is required")
	}

	domain := typeddata.DefaultDomain(new(big.Int).SetUint64(chainID), ethcommon.HexToAddress(contract))
	cli := NewCLI(domain)
	if err := cli.Run(); err != nil {
		log.Fatalf("CLI failed: %v", err)
	}
}
