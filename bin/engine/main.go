package main

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math/big"
	"os"
	"strings"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/go-co-op/gocron/v2"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/aeviaprotocol/aevia-go/engine"
	"github.com/aeviaprotocol/aevia-go/engine/events"
	"github.com/aeviaprotocol/aevia-go/engine/handler"
	"github.com/aeviaprotocol/aevia-go/engine/ledger"
	"github.com/aeviaprotocol/aevia-go/engine/roles"
	"github.com/aeviaprotocol/aevia-go/engine/task"
	testutil "github.com/aeviaprotocol/aevia-go/test_util"
)

type args struct {
	ConfigPath        string
	ChainID           uint64
	VerifyingContract string
	Admin             string
	OperatorsFilePath string
	DatabasePath      string
	MockAssets        bool
}

func loadArgs() (*args, error) {
	args := &args{}

	// Define flags
	flag.StringVar(&args.ConfigPath, "config", "", "Path to TOML config file")
	flag.Uint64Var(&args.ChainID, "chain-id", 0, "Chain id of the signing domain")
	flag.StringVar(&args.VerifyingContract, "contract", "", "Verifying contract address")
	flag.StringVar(&args.Admin, "admin", "", "Admin address")
	flag.StringVar(&args.OperatorsFilePath, "operators", "", "Path to operators file")
	flag.StringVar(&args.DatabasePath, "database", "", "Path to database file")
	flag.BoolVar(&args.MockAssets, "mock-assets", false, "Register in-memory asset ledgers")
	// Parse flags
	flag.Parse()

	if args.ConfigPath != "" {
		return args, nil
	}

	if args.ChainID == 0 {
		return nil, errors.New("chain id is required")
	}

	if args.VerifyingContract == "" {
		return nil, errors.New("verifying contract address is required")
	}

	if args.Admin == "" {
		return nil, errors.New("admin address is required")
	}

	if args.OperatorsFilePath == "" {
		return nil, errors.New("operators file is required")
	}

	if args.DatabasePath == "" {
		return nil, errors.New("database path is required")
	}

	return args, nil
}

func loadConfig(args *args) (*engine.Config, error) {
	if args.ConfigPath != "" {
		return engine.LoadConfig(args.ConfigPath)
	}
	return engine.NewConfig(
		args.ChainID,
		args.VerifyingContract,
		args.Admin,
		args.OperatorsFilePath,
		args.DatabasePath,
	)
}

func main() {
	log.SetFlags(log.Lshortfile | log.Ldate | log.Ltime)

	args, err := loadArgs()
	if err != nil {
		log.Fatalf("Failed to load args: %v", err)
	}

	config, err := loadConfig(args)
	if err != nil {
		log.Fatalf("Failed to create config: %v", err)
	}

	dbDriver := config.DatabaseDriver()
	db, err := sql.Open(dbDriver, config.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if dbDriver == "sqlite3" {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL;"); err != nil {
			log.Fatalf("Failed to set journal_mode: %v", err)
		}
		if _, err := db.ExecContext(context.Background(), "PRAGMA busy_timeout=5000;"); err != nil {
			log.Fatalf("Failed to set busy_timeout: %v", err)
		}
	}

	store := ledger.NewSQLStore(db, dbDriver)
	if err := store.Migrate(context.Background()); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	router := events.GetDefaultRouter()
	go func() {
		for record := range router.Subscribe("engine-log") {
			slog.Info("Protocol record", "type", record.RecordType(), "record", record)
		}
	}()

	registry := roles.NewRegistry(config.Admin, config.Operators, router)
	legacyHandler := handler.NewLegacyHandler(config, registry, store, nil, router)

	if args.MockAssets {
		legacyHandler.RegisterAssetLedger(testutil.TestFungibleAddress, testutil.NewFungibleToken(config.VerifyingContract))
		legacyHandler.RegisterAssetLedger(testutil.TestUniqueAddress, testutil.NewUniqueToken(config.VerifyingContract))
		legacyHandler.RegisterAssetLedger(testutil.TestSemiFungibleAddress, testutil.NewSemiFungibleToken(config.VerifyingContract))
		slog.Info("Registered mock asset ledgers")
	}

	s, err := gocron.NewScheduler()
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}
	for _, task := range task.AllTasks() {
		_, err := s.NewJob(gocron.DurationJob(task.Duration), gocron.NewTask(task.Task, config, ledger.Store(store)))
		if err != nil {
			log.Fatalf("Failed to create job: %v", err)
		}
	}
	s.Start()
	defer func() { _ = s.Shutdown() }()

	cli := NewCLI(config, legacyHandler, registry, store)
	if err := cli.Run(); err != nil {
		log.Fatalf("CLI failed: %v", err)
	}
}

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

	config  *engine.Config
	handler *handler.LegacyHandler
	roles   *roles.Registry
	store   ledger.Store
}

// NewCLI creates a new CLI instance
func NewCLI(config *engine.Config, legacyHandler *handler.LegacyHandler, registry *roles.Registry, store ledger.Store) *CLI {
	cli := &CLI{
		registry: NewCommandRegistry(),
		reader:   bufio.NewReader(os.Stdin),
		config:   config,
		handler:  legacyHandler,
		roles:    registry,
		store:    store,
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

// requestFile is the JSON shape of a signed execution request. Numeric
// fields are decimal strings so arbitrarily large values survive parsing.
type requestFile struct {
	LegacyID     string `json:"legacy_id"`
	TokenType    uint8  `json:"token_type"`
	TokenAddress string `json:"token_address"`
	TokenID      string `json:"token_id"`
	Amount       string `json:"amount"`
	From         string `json:"from"`
	To           string `json:"to"`
	Signature    string `json:"signature"`
}

func parseBigInt(field, value string) (*big.Int, error) {
	parsed, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("invalid %s: %q", field, value)
	}
	return parsed, nil
}

func loadRequest(path string) (*handler.ExecuteLegacyRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read request file: %w", err)
	}

	var file requestFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse request file: %w", err)
	}

	legacyID, err := parseBigInt("legacy_id", file.LegacyID)
	if err != nil {
		return nil, err
	}
	tokenID, err := parseBigInt("token_id", file.TokenID)
	if err != nil {
		return nil, err
	}
	amount, err := parseBigInt("amount", file.Amount)
	if err != nil {
		return nil, err
	}
	signature, err := hex.DecodeString(strings.TrimPrefix(file.Signature, "0x"))
	if err != nil {
		return nil, fmt.Errorf("decode signature: %w", err)
	}

	return &handler.ExecuteLegacyRequest{
		Legacy: engine.Legacy{
			LegacyID:     legacyID,
			TokenType:    engine.TokenType(file.TokenType),
			TokenAddress: ethcommon.HexToAddress(file.TokenAddress),
			TokenID:      tokenID,
			Amount:       amount,
			From:         ethcommon.HexToAddress(file.From),
			To:           ethcommon.HexToAddress(file.To),
		},
		Signature: signature,
	}, nil
}

func (cli *CLI) registerCommands() {
	cli.registry.RegisterCommand(Command{
		Name:        "execute",
		Description: "Execute a signed legacy from a JSON request file",
		Usage:       "execute <operator-address> <request-file>",
		Handler: func(args []string) error {
			if len(args) != 2 {
				return errors.New("usage: execute <operator-address> <request-file>")
			}
			req, err := loadRequest(args[1])
			if err != nil {
				return err
			}
			if err := cli.handler.ExecuteLegacy(context.Background(), ethcommon.HexToAddress(args[0]), req); err != nil {
				return err
			}
			fmt.Printf("Executed legacy %s for %s\n", req.Legacy.LegacyID, req.Legacy.From.Hex())
			return nil
		},
	})

	cli.registry.RegisterCommand(Command{
		Name:        "revoke",
		Description: "Revoke a legacy on behalf of its owner",
		Usage:       "revoke <owner-address> <legacy-id>",
		Handler: func(args []string) error {
			if len(args) != 2 {
				return errors.New("usage: revoke <owner-address> <legacy-id>")
			}
			legacyID, err := parseBigInt("legacy_id", args[1])
			if err != nil {
				return err
			}
			owner := ethcommon.HexToAddress(args[0])
			if err := cli.handler.RevokeLegacy(context.Background(), owner, legacyID); err != nil {
				return err
			}
			fmt.Printf("Revoked legacy %s for %s\n", legacyID, owner.Hex())
			return nil
		},
	})

	cli.registry.RegisterCommand(Command{
		Name:        "state",
		Description: "Show the lifecycle state of a legacy",
		Usage:       "state <owner-address> <legacy-id>",
		Handler: func(args []string) error {
			if len(args) != 2 {
				return errors.New("usage: state <owner-address> <legacy-id>")
			}
			legacyID, err := parseBigInt("legacy_id", args[1])
			if err != nil {
				return err
			}
			state, err := cli.store.State(context.Background(), ethcommon.HexToAddress(args[0]), legacyID)
			if err != nil {
				return err
			}
			fmt.Println(state)
			return nil
		},
	})

	cli.registry.RegisterCommand(Command{
		Name:        "add-operator",
		Description: "Grant the operator role as the configured admin",
		Usage:       "add-operator <address>",
		Handler: func(args []string) error {
			if len(args) != 1 {
				return errors.New("usage: add-operator <address>")
			}
			return cli.handler.AddOperator(cli.config.Admin, ethcommon.HexToAddress(args[0]))
		},
	})

	cli.registry.RegisterCommand(Command{
		Name:        "remove-operator",
		Description: "Revoke the operator role as the configured admin",
		Usage:       "remove-operator <address>",
		Handler: func(args []string) error {
			if len(args) != 1 {
				return errors.New("usage: remove-operator <address>")
			}
			return cli.handler.RemoveOperator(cli.config.Admin, ethcommon.HexToAddress(args[0]))
		},
	})

	cli.registry.RegisterCommand(Command{
		Name:        "operators",
		Description: "List accounts holding the operator role",
		Usage:       "operators",
		Handler: func(args []string) error {
			for _, operator := range cli.roles.Operators() {
				fmt.Println(operator.Hex())
			}
			return nil
		},
	})

	cli.registry.RegisterCommand(Command{
		Name:        "help",
		Description: "Show available commands",
		Usage:       "help",
		Handler: func(args []string) error {
			for _, cmd := range cli.registry.ListCommands() {
				fmt.Printf("%-16s %s\n    %s\n", cmd.Name, cmd.Description, cmd.Usage)
			}
			return nil
		},
	})
}

// Run starts the CLI loop
func (cli *CLI) Run() error {
	fmt.Println("Aevia engine console. Type 'help' for commands, 'exit' to quit.")

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
