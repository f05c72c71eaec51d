// Command ledger manages a local expense-tracker profile from the terminal.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/msomdec/expense-tracker/internal/app"
	"github.com/msomdec/expense-tracker/internal/config"
	"github.com/msomdec/expense-tracker/internal/domain"
	"github.com/msomdec/expense-tracker/internal/service"
	"golang.org/x/term"
)

const usage = `Usage: ledger [-config file] [-db path] [-v] <command> [flags]

Commands:
  register    create an account and sign in
  login       sign in to the profile
  logout      sign out
  whoami      show the signed-in user
  add         record a transaction
  edit        change a transaction
  rm          delete a transaction
  list        list transactions (-q search, -category filter)
  recent      show the latest transactions by date
  summary     show income, expenses, balance and savings rate
  chart       show per-day (-by day) or per-category (-by category) totals
  categories  list the category catalog
  export      write transactions as csv or xlsx
`

func main() {
	_ = godotenv.Load()

	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type cli struct {
	app    *app.App
	stdin  *bufio.Reader
	rawIn  io.Reader
	stdout io.Writer
	stderr io.Writer
}

type command func(c *cli, ctx context.Context, args []string) error

var commands = map[string]command{
	"register":   (*cli).register,
	"login":      (*cli).login,
	"logout":     (*cli).logout,
	"whoami":     (*cli).whoami,
	"add":        (*cli).add,
	"edit":       (*cli).edit,
	"rm":         (*cli).remove,
	"list":       (*cli).list,
	"recent":     (*cli).recent,
	"summary":    (*cli).summary,
	"chart":      (*cli).chart,
	"categories": (*cli).categories,
	"export":     (*cli).export,
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("ledger", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usage) }

	configPath := fs.String("config", "", "Path to a YAML config file")
	dbPath := fs.String("db", "", "Path to the profile database (overrides storage.path)")
	verbose := fs.Bool("v", false, "Verbose logging")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fmt.Fprint(stdout, usage)
		return fmt.Errorf("missing command")
	}

	name := fs.Arg(0)
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprint(stdout, usage)
		return fmt.Errorf("unknown command %q", name)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *dbPath != "" {
		cfg.Storage.Driver = config.DriverSQLite
		cfg.Storage.Path = *dbPath
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))

	ctx := context.Background()
	a, err := app.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open profile: %w", err)
	}
	defer a.Close()

	c := &cli{
		app:    a,
		stdin:  bufio.NewReader(stdin),
		rawIn:  stdin,
		stdout: stdout,
		stderr: stderr,
	}
	return cmd(c, ctx, fs.Args()[1:])
}

func (c *cli) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	return fs
}

func (c *cli) register(ctx context.Context, args []string) error {
	fs := c.flags("register")
	name := fs.String("name", "", "Full name")
	email := fs.String("email", "", "Email address")
	password := fs.String("password", "", "Password (prompted when omitted)")
	terms := fs.Bool("accept-terms", false, "Accept the terms and conditions")
	if err := fs.Parse(args); err != nil {
		return err
	}

	pw, confirm := *password, *password
	if pw == "" {
		var err error
		if pw, err = c.prompt("Password: "); err != nil {
			return err
		}
		if confirm, err = c.prompt("Confirm password: "); err != nil {
			return err
		}
	}

	user, err := c.app.Auth.Register(ctx, *name, *email, pw, confirm, *terms)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "Welcome, %s! You are signed in as %s.\n", user.Name, user.Email)
	return nil
}

func (c *cli) login(ctx context.Context, args []string) error {
	fs := c.flags("login")
	email := fs.String("email", "", "Email address")
	password := fs.String("password", "", "Password (prompted when omitted)")
	remember := fs.Bool("remember", false, "Keep the session for 30 days")
	if err := fs.Parse(args); err != nil {
		return err
	}

	pw := *password
	if pw == "" {
		var err error
		if pw, err = c.prompt("Password: "); err != nil {
			return err
		}
	}

	user, err := c.app.Auth.Login(ctx, *email, pw, *remember)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "Signed in as %s.\n", user.Email)
	return nil
}

func (c *cli) logout(ctx context.Context, _ []string) error {
	if err := c.app.Auth.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(c.stdout, "Signed out.")
	return nil
}

func (c *cli) whoami(ctx context.Context, _ []string) error {
	ok, err := c.app.Auth.IsAuthenticated(ctx)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(c.stdout, "Not signed in.")
		return nil
	}
	user, err := c.app.Auth.CurrentUser(ctx)
	if err != nil {
		return err
	}
	if user == nil {
		fmt.Fprintln(c.stdout, "Not signed in.")
		return nil
	}

	fmt.Fprintf(c.stdout, "%s <%s>\n", user.Name, user.Email)
	session, err := c.app.Auth.CurrentSession(ctx)
	if err == nil && session != nil && session.ExpiresAt != nil {
		fmt.Fprintf(c.stdout, "Session expires %s\n", session.ExpiresAt.Local().Format(time.RFC1123))
	}
	return nil
}

type txFlags struct {
	fs          *flag.FlagSet
	typ         *string
	amount      *string
	description *string
	category    *string
	date        *string
	notes       *string
}

func (c *cli) transactionFlags(name string) txFlags {
	fs := c.flags(name)
	return txFlags{
		fs:          fs,
		typ:         fs.String("type", "expense", "income or expense"),
		amount:      fs.String("amount", "", "Amount, e.g. 12.50"),
		description: fs.String("desc", "", "Description"),
		category:    fs.String("category", "", "Category id (see 'ledger categories')"),
		date:        fs.String("date", time.Now().Format(domain.DateLayout), "Date as YYYY-MM-DD"),
		notes:       fs.String("notes", "", "Optional notes"),
	}
}

func (f txFlags) input() domain.TransactionInput {
	return domain.TransactionInput{
		Type:        domain.TransactionType(*f.typ),
		Amount:      *f.amount,
		Description: *f.description,
		Category:    domain.CategoryID(*f.category),
		Date:        *f.date,
		Notes:       *f.notes,
	}
}

func (c *cli) add(ctx context.Context, args []string) error {
	f := c.transactionFlags("add")
	if err := f.fs.Parse(args); err != nil {
		return err
	}
	txs, err := c.app.Ledger.Transactions(ctx)
	if err != nil {
		return err
	}

	tx, err := txs.Create(ctx, f.input())
	if err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "Added %s %s (%s).\n", tx.Type, tx.Amount.StringFixed(2), tx.ID)
	return nil
}

func (c *cli) edit(ctx context.Context, args []string) error {
	f := c.transactionFlags("edit")
	id := f.fs.String("id", "", "Transaction id")
	if err := f.fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return fmt.Errorf("missing required flags: id")
	}
	txs, err := c.app.Ledger.Transactions(ctx)
	if err != nil {
		return err
	}
	current, err := txs.Get(*id)
	if err != nil {
		return err
	}

	// Unset flags keep the stored values.
	in := domain.TransactionInput{
		Type:        current.Type,
		Amount:      current.Amount.String(),
		Description: current.Description,
		Category:    current.Category,
		Date:        current.Date,
		Notes:       current.Notes,
	}
	set := f.input()
	f.fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "type":
			in.Type = set.Type
		case "amount":
			in.Amount = set.Amount
		case "desc":
			in.Description = set.Description
		case "category":
			in.Category = set.Category
		case "date":
			in.Date = set.Date
		case "notes":
			in.Notes = set.Notes
		}
	})

	tx, err := txs.Update(ctx, *id, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "Updated %s.\n", tx.ID)
	return nil
}

func (c *cli) remove(ctx context.Context, args []string) error {
	fs := c.flags("rm")
	id := fs.String("id", "", "Transaction id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return fmt.Errorf("missing required flags: id")
	}
	txs, err := c.app.Ledger.Transactions(ctx)
	if err != nil {
		return err
	}
	if err := txs.Delete(ctx, *id); err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "Deleted %s.\n", *id)
	return nil
}

func (c *cli) list(ctx context.Context, args []string) error {
	fs := c.flags("list")
	query := fs.String("q", "", "Search description, notes, category and date")
	category := fs.String("category", "", "Only show this category id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	txs, err := c.app.Ledger.Transactions(ctx)
	if err != nil {
		return err
	}

	items := txs.Search(*query)
	if *category != "" {
		items = service.FilterByCategory(items, domain.CategoryID(*category))
	}
	return c.printTransactions(items)
}

func (c *cli) recent(ctx context.Context, args []string) error {
	fs := c.flags("recent")
	n := fs.Int("n", service.DefaultRecentLimit, "Number of transactions")
	if err := fs.Parse(args); err != nil {
		return err
	}
	txs, err := c.app.Ledger.Transactions(ctx)
	if err != nil {
		return err
	}
	return c.printTransactions(txs.Recent(*n))
}

func (c *cli) summary(ctx context.Context, _ []string) error {
	txs, err := c.app.Ledger.Transactions(ctx)
	if err != nil {
		return err
	}
	s := txs.Summarize()

	w := tabwriter.NewWriter(c.stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(w, "Income\t%s\t\n", s.TotalIncome.StringFixed(2))
	fmt.Fprintf(w, "Expenses\t%s\t\n", s.TotalExpense.StringFixed(2))
	fmt.Fprintf(w, "Balance\t%s\t\n", s.Balance.StringFixed(2))
	fmt.Fprintf(w, "Savings rate\t%s%%\t\n", s.SavingsRate.StringFixed(1))
	return w.Flush()
}

func (c *cli) chart(ctx context.Context, args []string) error {
	fs := c.flags("chart")
	by := fs.String("by", "day", "day or category")
	days := fs.Int("days", service.DefaultChartDays, "Trailing days for -by day")
	if err := fs.Parse(args); err != nil {
		return err
	}
	txs, err := c.app.Ledger.Transactions(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(c.stdout, 0, 0, 2, ' ', 0)
	switch *by {
	case "day":
		buckets, err := txs.AggregateByDayWindow(*days)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "DAY\tINCOME\tEXPENSE")
		for _, b := range buckets {
			fmt.Fprintf(w, "%s\t%s\t%s\n", b.Label, b.Income.StringFixed(2), b.Expense.StringFixed(2))
		}
	case "category":
		fmt.Fprintln(w, "CATEGORY\tTOTAL")
		for _, t := range txs.AggregateByCategory() {
			fmt.Fprintf(w, "%s\t%s\n", t.Category.Name, t.Total.StringFixed(2))
		}
	default:
		return fmt.Errorf("unknown -by %q (want day or category)", *by)
	}
	return w.Flush()
}

func (c *cli) categories(_ context.Context, args []string) error {
	fs := c.flags("categories")
	typ := fs.String("type", "", "Only categories for income or expense")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cats := domain.Categories()
	if *typ != "" {
		t, err := domain.ParseTransactionType(*typ)
		if err != nil {
			return err
		}
		cats = domain.CategoriesFor(t)
	}

	w := tabwriter.NewWriter(c.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTYPE")
	for _, cat := range cats {
		fmt.Fprintf(w, "%s\t%s\t%s\n", cat.ID, cat.Name, cat.Type)
	}
	return w.Flush()
}

func (c *cli) export(ctx context.Context, args []string) error {
	fs := c.flags("export")
	format := fs.String("format", "csv", "csv or xlsx")
	out := fs.String("o", "", "Output file (csv defaults to stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var write func(io.Writer, []domain.Transaction) error
	switch *format {
	case "csv":
		write = service.ExportCSV
	case "xlsx":
		write = service.ExportXLSX
		if *out == "" {
			return fmt.Errorf("xlsx export needs -o <file>")
		}
	default:
		return fmt.Errorf("unknown -format %q (want csv or xlsx)", *format)
	}

	txs, err := c.app.Ledger.Transactions(ctx)
	if err != nil {
		return err
	}

	if *out == "" {
		return write(c.stdout, txs.List())
	}
	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("create %s: %w", *out, err)
	}
	if err := write(f, txs.List()); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "Exported %d transactions to %s.\n", len(txs.List()), *out)
	return nil
}

func (c *cli) printTransactions(items []domain.Transaction) error {
	if len(items) == 0 {
		fmt.Fprintln(c.stdout, "No transactions.")
		return nil
	}
	w := tabwriter.NewWriter(c.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tTYPE\tCATEGORY\tAMOUNT\tDESCRIPTION\tID")
	for _, t := range items {
		amount := t.Amount.StringFixed(2)
		if t.Type == domain.TypeExpense {
			amount = "-" + amount
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			t.Date, t.Type, domain.LookupCategory(t.Category).Name, amount, t.Description, t.ID)
	}
	return w.Flush()
}

// prompt reads one line from stdin, without echo when it is a terminal.
func (c *cli) prompt(label string) (string, error) {
	fmt.Fprint(c.stdout, label)
	if f, ok := c.rawIn.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(c.stdout)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(b), nil
	}

	line, err := c.stdin.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
