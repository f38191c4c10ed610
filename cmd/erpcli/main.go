package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"framecraft/internal/client/gateway"
	"framecraft/internal/client/measurement"
	"framecraft/internal/client/session"
	"framecraft/internal/client/shell"
	"framecraft/internal/client/tokenstore"
)

// Default API base URL; override with FRAMECRAFT_API_URL or --server.
var apiBaseURL = "http://localhost:3000/api/v1"

func main() {
	cmd := flag.String("cmd", "whoami", "Command: login|logout|register|whoami|list|deleted|show|create|approve|reject|delete|recover|recover-all|dashboard")
	id := flag.Uint("id", 0, "Measurement ID (for show/approve/reject/delete/recover)")
	page := flag.Int("page", 1, "Page number (for list/deleted)")
	reason := flag.String("reason", "", "Reason (for reject/delete)")
	mtype := flag.String("type", "", "Measurement type (for create): frame_sample|shutter_sample|regular_frame|regular_shutter")
	party := flag.String("party", "", "Party name (for create)")
	serverFlag := flag.String("server", "", "Override API base URL (e.g. https://erp.framecraft.in/api/v1)")
	flag.Parse()

	_ = godotenv.Load()
	if env := os.Getenv("FRAMECRAFT_API_URL"); env != "" {
		apiBaseURL = strings.TrimRight(env, "/")
	}
	if *serverFlag != "" {
		apiBaseURL = strings.TrimRight(*serverFlag, "/")
	}

	app, err := newApp()
	if err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}

	ctx := context.Background()

	switch *cmd {
	case "login":
		err = app.login(ctx)
	case "logout":
		err = app.logout(ctx)
	case "register":
		err = app.register(ctx)
	case "whoami":
		err = app.whoami(ctx)
	case "list":
		err = app.list(ctx, *page, false)
	case "deleted":
		err = app.list(ctx, *page, true)
	case "show":
		err = app.show(ctx, requireID(*id))
	case "create":
		err = app.create(ctx, *mtype, *party)
	case "approve":
		err = app.approve(ctx, requireID(*id))
	case "reject":
		err = app.reject(ctx, requireID(*id), *reason)
	case "delete":
		err = app.remove(ctx, requireID(*id), *reason)
	case "recover":
		err = app.recover(ctx, requireID(*id))
	case "recover-all":
		err = app.recoverAll(ctx)
	case "dashboard":
		err = app.dashboard(ctx)
	default:
		fmt.Println("Unknown command:", *cmd)
		os.Exit(1)
	}

	if err != nil {
		if errors.Is(err, gateway.ErrAuthExpired) {
			fmt.Println("Session expired. Run -cmd login to sign in again.")
		} else {
			fmt.Println("Error:", err)
		}
		os.Exit(1)
	}
}

func requireID(id uint) uint {
	if id == 0 {
		fmt.Println("--id required")
		os.Exit(1)
	}
	return id
}

type app struct {
	session      *session.Manager
	measurements *measurement.Controller
	api          *gateway.Client
	stdin        *bufio.Reader
}

func newApp() (*app, error) {
	dir, err := tokenstore.DefaultDir()
	if err != nil {
		return nil, fmt.Errorf("resolve credentials dir: %w", err)
	}
	if env := os.Getenv("FRAMECRAFT_CREDENTIALS_DIR"); env != "" {
		dir = env
	}

	store, err := tokenstore.New(dir)
	if err != nil {
		return nil, fmt.Errorf("open credentials store: %w", err)
	}

	api := gateway.New(apiBaseURL, store)
	return &app{
		session:      session.NewManager(api, store),
		measurements: measurement.NewController(api),
		api:          api,
		stdin:        bufio.NewReader(os.Stdin),
	}, nil
}

// restore brings the session up from stored credentials and fails the
// command early when nothing usable is on disk.
func (a *app) restore(ctx context.Context) error {
	a.session.Restore(ctx)
	if a.session.State() != session.Authenticated {
		return errors.New("not logged in; run -cmd login")
	}
	return nil
}

// ===== Auth commands =====

func (a *app) login(ctx context.Context) error {
	email := a.prompt("Email: ")
	password := a.promptSecret("Password: ")

	route, err := a.session.Login(ctx, email, password)
	if err != nil {
		return err
	}

	user, _ := a.session.CurrentUser()
	fmt.Printf("Logged in as %s (%s)\n", user.Username, user.Role)
	fmt.Println("Workspace:", route)
	return nil
}

func (a *app) logout(ctx context.Context) error {
	a.session.Restore(ctx)
	route := a.session.Logout(ctx)
	fmt.Println("Logged out. Next stop:", route)
	return nil
}

func (a *app) register(ctx context.Context) error {
	email := a.prompt("Email: ")
	username := a.prompt("Username: ")
	role := a.prompt("Role: ")
	password := a.promptSecret("Password: ")

	route, err := a.session.Register(ctx, email, username, role, password)
	if err != nil {
		return err
	}

	user, _ := a.session.CurrentUser()
	fmt.Printf("Registered and logged in as %s (%s)\n", user.Username, user.Role)
	fmt.Println("Workspace:", route)
	return nil
}

func (a *app) whoami(ctx context.Context) error {
	a.session.Restore(ctx)
	switch a.session.State() {
	case session.Authenticated:
		user, _ := a.session.CurrentUser()
		fmt.Printf("%s <%s>\nRole: %s\nHome: %s\n", user.Username, user.Email, user.Role, shell.DestinationFor(user.Role))
	default:
		fmt.Println("Not logged in.")
	}
	return nil
}

// ===== Measurement commands =====

func (a *app) list(ctx context.Context, page int, deleted bool) error {
	if err := a.restore(ctx); err != nil {
		return err
	}

	var (
		records []measurement.Record
		err     error
	)
	if deleted {
		records, err = a.measurements.ListDeleted(ctx, page)
	} else {
		records, err = a.measurements.List(ctx, page)
	}
	if err != nil {
		return err
	}

	if len(records) == 0 {
		fmt.Println("No measurements.")
		return nil
	}
	for _, rec := range records {
		printRecordLine(rec)
	}
	return nil
}

func (a *app) show(ctx context.Context, id uint) error {
	if err := a.restore(ctx); err != nil {
		return err
	}

	rec, err := a.measurements.Get(ctx, id)
	if err != nil {
		return err
	}

	printRecordLine(*rec)
	if rec.RejectReason != "" {
		fmt.Println("  rejected:", rec.RejectReason)
	}
	if rec.DeleteReason != "" {
		fmt.Println("  deleted:", rec.DeleteReason)
	}
	for _, item := range rec.Items {
		var fields map[string]string
		if err := json.Unmarshal([]byte(item.Fields), &fields); err != nil {
			fmt.Printf("  [%d] %s\n", item.Position, item.Fields)
			continue
		}
		fmt.Printf("  [%d]", item.Position)
		for k, v := range fields {
			fmt.Printf(" %s=%s", k, v)
		}
		fmt.Println()
	}
	return nil
}

func (a *app) create(ctx context.Context, mtype, party string) error {
	if mtype == "" || party == "" {
		return errors.New("--type and --party required")
	}
	if err := a.restore(ctx); err != nil {
		return err
	}

	// Read item rows interactively: key=value pairs per line, blank
	// line finishes the item, two blank lines finish the form.
	fmt.Println("Enter items, one field per line as key=value. Blank line ends an item; blank item ends input.")
	var items []map[string]string
	for {
		item := map[string]string{}
		for {
			line := strings.TrimSpace(a.prompt("> "))
			if line == "" {
				break
			}
			key, value, ok := strings.Cut(line, "=")
			if !ok {
				fmt.Println("Expected key=value")
				continue
			}
			item[strings.TrimSpace(key)] = strings.TrimSpace(value)
		}
		if len(item) == 0 {
			break
		}
		items = append(items, item)
	}

	rec, err := a.measurements.Create(ctx, measurement.CreateInput{
		Type:      mtype,
		PartyName: party,
		Items:     items,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Created %s (#%d), pending approval.\n", rec.Number, rec.ID)
	return nil
}

func (a *app) approve(ctx context.Context, id uint) error {
	if err := a.restore(ctx); err != nil {
		return err
	}

	rec, err := a.measurements.Get(ctx, id)
	if err != nil {
		return err
	}

	updated, err := a.measurements.Approve(ctx, rec)
	if err != nil {
		return err
	}
	fmt.Printf("%s approved.\n", updated.Number)
	return nil
}

func (a *app) reject(ctx context.Context, id uint, reason string) error {
	if err := a.restore(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(reason) == "" {
		reason = a.prompt("Reject reason: ")
	}

	rec, err := a.measurements.Get(ctx, id)
	if err != nil {
		return err
	}

	updated, err := a.measurements.Reject(ctx, rec, reason)
	if err != nil {
		return err
	}
	fmt.Printf("%s rejected.\n", updated.Number)
	return nil
}

func (a *app) remove(ctx context.Context, id uint, reason string) error {
	if err := a.restore(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(reason) == "" {
		reason = a.prompt("Delete reason: ")
	}

	rec, err := a.measurements.Get(ctx, id)
	if err != nil {
		return err
	}

	updated, err := a.measurements.Delete(ctx, rec, reason, a.confirmPrompt)
	if err != nil {
		return err
	}
	fmt.Printf("%s deleted. It can be recovered from the deleted view.\n", updated.Number)
	return nil
}

func (a *app) recover(ctx context.Context, id uint) error {
	if err := a.restore(ctx); err != nil {
		return err
	}

	rec, err := a.measurements.Get(ctx, id)
	if err != nil {
		return err
	}

	updated, err := a.measurements.Recover(ctx, rec, a.confirmPrompt)
	if err != nil {
		return err
	}
	fmt.Printf("%s recovered.\n", updated.Number)
	return nil
}

func (a *app) recoverAll(ctx context.Context) error {
	if err := a.restore(ctx); err != nil {
		return err
	}

	outcomes, err := a.measurements.RecoverAll(ctx, a.confirmPrompt)
	if err != nil {
		return err
	}
	if len(outcomes) == 0 {
		fmt.Println("Nothing to recover.")
		return nil
	}

	failed := 0
	for _, out := range outcomes {
		if out.Err != nil {
			failed++
			fmt.Printf("  %s (#%d): %v\n", out.Number, out.ID, out.Err)
		} else {
			fmt.Printf("  %s (#%d): recovered\n", out.Number, out.ID)
		}
	}
	fmt.Printf("Recovered %d of %d.\n", len(outcomes)-failed, len(outcomes))
	return nil
}

func (a *app) dashboard(ctx context.Context) error {
	if err := a.restore(ctx); err != nil {
		return err
	}

	data, err := a.api.Get(ctx, "/production/dashboard")
	if err != nil {
		return err
	}

	var summary struct {
		PendingApproval int64 `json:"pending_approval"`
		Approved        int64 `json:"approved"`
		Rejected        int64 `json:"rejected"`
		Deleted         int64 `json:"deleted"`
		TotalActive     int64 `json:"total_active"`
	}
	if err := json.Unmarshal(data, &summary); err != nil {
		return fmt.Errorf("decode dashboard: %w", err)
	}

	fmt.Println("Pending approval:", summary.PendingApproval)
	fmt.Println("Approved:        ", summary.Approved)
	fmt.Println("Rejected:        ", summary.Rejected)
	fmt.Println("Deleted:         ", summary.Deleted)
	fmt.Println("Total active:    ", summary.TotalActive)
	return nil
}

// ===== Prompts =====

func (a *app) prompt(label string) string {
	fmt.Print(label)
	line, _ := a.stdin.ReadString('\n')
	return strings.TrimSpace(line)
}

// promptSecret reads a password. Terminal echo stays on; the client
// targets internal workstations.
func (a *app) promptSecret(label string) string {
	return a.prompt(label)
}

// confirmPrompt shows the confirmation code and reads the user's copy
func (a *app) confirmPrompt(code string, retry bool) (string, error) {
	if retry {
		fmt.Println("Code did not match. Try the new code.")
	}
	fmt.Printf("Type %s to confirm (or press Enter to cancel): ", code)
	line, err := a.stdin.ReadString('\n')
	if err != nil {
		return "", err
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", errors.New("cancelled")
	}
	return line, nil
}

func printRecordLine(rec measurement.Record) {
	status := rec.ApprovalStatus
	if rec.IsDeleted {
		status = "deleted"
	}
	fmt.Printf("#%-4s %-22s %-16s %-18s %s\n",
		strconv.FormatUint(uint64(rec.ID), 10),
		rec.Number, rec.Type, rec.PartyName,
		status+" ("+rec.CreatedAt.Format(time.DateOnly)+")")
}
