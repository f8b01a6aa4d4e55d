package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"quit-tracker/internal/auth"
	"quit-tracker/internal/cli"
	"quit-tracker/internal/config"
	"quit-tracker/internal/logger"
	"quit-tracker/internal/storage"
	"quit-tracker/internal/tracker"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
)

// PasswordEnv is read when --password is not given.
const PasswordEnv = "QUIT_TRACKER_PASSWORD"

type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	lines  *bufio.Reader // buffered stdin for prompts when it is not a terminal

	now   func() time.Time
	prefs config.Prefs
	log   *zap.Logger
	db    *storage.DB

	flagDB       string
	flagUser     string
	flagPassword string
	flagVerbose  bool
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *app {
	return &app{
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		now:    time.Now,
		log:    zap.NewNop(),
	}
}

func (a *app) execute(args []string) error {
	prefs, err := config.LoadPrefs()
	if err != nil {
		return err
	}
	a.prefs = prefs
	defer a.close()

	root := a.rootCmd()
	root.SetArgs(args)
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	return root.Execute()
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "quitctl",
		Short:         "Quit tracker from the terminal",
		Long:          "Inspect and update a quit-tracker streak: savings, ledger, milestones and resets.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if path := os.Getenv("DB_PATH"); path != "" && !cmd.Flags().Changed("db") {
				a.flagDB = path
			}
			if a.flagVerbose {
				l, err := logger.New("debug", "")
				if err != nil {
					return err
				}
				a.log = l
			}
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flagDB, "db", a.prefs.General.DBPath, "Path to database file")
	pf.StringVarP(&a.flagUser, "user", "u", a.prefs.General.Username, "Account username")
	pf.StringVar(&a.flagPassword, "password", "", "Password (otherwise $"+PasswordEnv+", otherwise prompted)")
	pf.BoolVarP(&a.flagVerbose, "verbose", "v", false, "Log debug output to stderr")

	root.AddCommand(
		a.adduserCmd(),
		a.statusCmd(),
		a.ledgerCmd(),
		a.chartCmd(),
		a.healthCmd(),
		a.resetsCmd(),
		a.startCmd(),
		a.restartCmd(),
		a.settingsCmd(),
		a.watchCmd(),
		a.configCmd(),
	)
	return root
}

func (a *app) close() {
	if a.db != nil {
		_ = a.db.Close()
		a.db = nil
	}
	_ = a.log.Sync()
}

func (a *app) styles() cli.Styles {
	return cli.NewStyles(a.prefs.Appearance.Theme)
}

func (a *app) openDB() (*storage.DB, error) {
	if a.db != nil {
		return a.db, nil
	}
	db, err := storage.NewDB(a.flagDB)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	a.db = db
	return db, nil
}

func (a *app) trackerService() (*tracker.Service, error) {
	db, err := a.openDB()
	if err != nil {
		return nil, err
	}
	return tracker.NewService(db, tracker.WithClock(a.now), tracker.WithLogger(a.log)), nil
}

// session authenticates the global --user and opens their tracker session.
func (a *app) session() (*tracker.Service, *tracker.Session, error) {
	if a.flagUser == "" {
		return nil, nil, errors.New("missing required flag: --user")
	}
	svc, err := a.trackerService()
	if err != nil {
		return nil, nil, err
	}
	password, err := a.password()
	if err != nil {
		return nil, nil, err
	}

	accountID, err := auth.NewService(a.db).Authenticate(a.flagUser, password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return nil, nil, errors.New("invalid username or password")
		}
		return nil, nil, err
	}

	sess, err := svc.Open(accountID)
	if err != nil {
		return nil, nil, err
	}
	return svc, sess, nil
}

// password resolves the password from the flag, the environment or a prompt.
func (a *app) password() (string, error) {
	if a.flagPassword != "" {
		return a.flagPassword, nil
	}
	if p := os.Getenv(PasswordEnv); p != "" {
		return p, nil
	}
	fmt.Fprint(a.stdout, "Password: ")
	p, err := a.readPassword()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	fmt.Fprintln(a.stdout)
	return p, nil
}

func (a *app) stdinTerminal() (*os.File, bool) {
	f, ok := a.stdin.(*os.File)
	return f, ok && term.IsTerminal(int(f.Fd()))
}

func (a *app) readPassword() (string, error) {
	if f, ok := a.stdinTerminal(); ok {
		bytePassword, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(bytePassword), nil
	}
	return a.readLine()
}

// readLine reads one line from a non-terminal stdin (tests, pipes).
func (a *app) readLine() (string, error) {
	if a.lines == nil {
		a.lines = bufio.NewReader(a.stdin)
	}
	line, err := a.lines.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
