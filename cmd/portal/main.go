// Command portal is the terminal client of the complaint portal.
package main

import (
	"complaintportal/backend/internal/authz"
	"complaintportal/backend/internal/cache"
	"complaintportal/backend/internal/complaint"
	"complaintportal/backend/internal/config"
	"complaintportal/backend/internal/eventhub"
	"complaintportal/backend/internal/localization"
	"complaintportal/backend/internal/models"
	"complaintportal/backend/internal/portalapi"
	"complaintportal/backend/internal/session"
	"complaintportal/backend/internal/transport"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/redis/go-redis/v9"
)

const usage = `Usage: portal <command> [args]

Commands:
  login <role> <username> <password>
  logout
  whoami
  open <path>                                 evaluate a view for the current session
  list                                        complaints visible to the current role
  transition <id> <status> [feedback]
  assign <id> <admin id>
  reject <id> <feedback>
  bulk <status> <id,id,...> [feedback] [admin id]
  admins                                      active admins (triage)
  summary                                     dashboard counts
  watch                                       follow live complaint changes`

type app struct {
	cfg   *config.Config
	store *session.Store
	api   *portalapi.Client
	gate  *authz.Gate
	cache *cache.Cache
	svc   *complaint.Service
	loc   *localization.Localizer
}

func newKV(cfg *config.Config) session.KV {
	if cfg.SessionRedis {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		return session.NewRedisKV(rdb, cfg.SessionDevice)
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return session.NewFileKV(filepath.Join(dir, "complaint-portal"), cfg.SessionDevice)
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}
	command, args := os.Args[1], os.Args[2:]

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	loc, err := localization.Open(cfg.LocalesDir, cfg.Language)
	if err != nil {
		log.Fatalf("Failed to load locales: %v", err)
	}

	store := session.NewStore(newKV(cfg))
	if err := store.Load(ctx); err != nil {
		log.Printf("WARN: could not restore session: %v", err)
	}
	api := portalapi.New(transport.NewHTTPTransport(cfg.APIBaseURL, store.Token))
	c := cache.New(api)

	a := &app{
		cfg:   cfg,
		store: store,
		api:   api,
		gate:  authz.NewGate(store),
		cache: c,
		svc:   complaint.NewService(api, c),
		loc:   loc,
	}
	if err := a.run(ctx, command, args); err != nil {
		if transport.IsUnauthorized(err) {
			_ = store.Logout(ctx)
			fmt.Fprintln(os.Stderr, "Session expired. Please log in again.")
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "login":
		if len(args) < 3 {
			return errors.New("usage: portal login <role> <username> <password>")
		}
		role, err := models.ParseRole(args[0])
		if err != nil {
			return err
		}
		p, err := a.store.Login(ctx, a.api, role, args[1], args[2])
		if err != nil {
			return err
		}
		fmt.Printf("Logged in as %s (%s). Home: %s\n", p.Profile().Username, p.Role, p.Role.HomePath())
		return nil
	case "logout":
		if a.store.Current() != nil {
			if err := a.api.Logout(ctx); err != nil {
				log.Printf("WARN: server logout failed: %v", err)
			}
		}
		return a.store.Logout(ctx)
	case "whoami":
		p := a.store.Current()
		if p == nil {
			fmt.Println("Not logged in.")
			return nil
		}
		prof := p.Profile()
		fmt.Printf("%s (%s) id=%s role=%s\n", prof.Name, prof.Username, prof.ID, p.Role)
		return nil
	case "open":
		if len(args) < 1 {
			return errors.New("usage: portal open <path>")
		}
		d := a.gate.Enter(ctx, args[0])
		fmt.Printf("%s: %s %s\n", d.State, d.Action, d.Target)
		return nil
	}

	p, err := a.authorize(ctx)
	if err != nil {
		return err
	}

	switch command {
	case "list":
		if err := a.cache.Load(ctx, defaultScope(p)); err != nil {
			return err
		}
		a.printComplaints(a.cache.Snapshot())
	case "transition":
		if len(args) < 2 {
			return errors.New("usage: portal transition <id> <status> [feedback]")
		}
		target, err := models.ParseStatus(args[1])
		if err != nil {
			return err
		}
		if err := a.cache.Load(ctx, defaultScope(p)); err != nil {
			return err
		}
		rec, err := a.svc.Transition(ctx, p.Role, args[0], target, complaint.Payload{
			Feedback: argAt(args, 2),
			ActorID:  p.Profile().ID,
		})
		if err != nil {
			return err
		}
		a.printComplaints([]models.Complaint{*rec})
	case "assign", "reject":
		if len(args) < 2 {
			return fmt.Errorf("usage: portal %s <id> <%s>", command, map[string]string{"assign": "admin id", "reject": "feedback"}[command])
		}
		if err := a.cache.Load(ctx, defaultScope(p)); err != nil {
			return err
		}
		var rec *models.Complaint
		if command == "assign" {
			rec, err = a.svc.Assign(ctx, args[0], args[1])
		} else {
			rec, err = a.svc.Reject(ctx, args[0], args[1])
		}
		if err != nil {
			return err
		}
		a.printComplaints([]models.Complaint{*rec})
	case "bulk":
		return a.bulk(ctx, p, args)
	case "admins":
		admins, err := a.api.ListActiveAdmins(ctx)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tDEPARTMENT")
		for _, ad := range admins {
			fmt.Fprintf(w, "%s\t%s\t%s\n", ad.ID, ad.FullName, ad.Department)
		}
		return w.Flush()
	case "summary":
		s, err := a.api.DashboardSummary(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Total %d, pending %d, unassigned %d\n", s.Total, s.Pending(), s.Unassigned)
		for _, st := range []models.Status{models.StatusOpen, models.StatusAssigned, models.StatusProcessing, models.StatusResolved, models.StatusRejected} {
			fmt.Printf("  %-12s %d\n", a.statusLabel(st), s.ByStatus[st])
		}
	case "watch":
		return a.watch(ctx, p)
	default:
		fmt.Println(usage)
		return fmt.Errorf("unknown command %q", command)
	}
	return nil
}

// authorize runs the gate on the role's home view and returns the principal
// only when that view would render.
func (a *app) authorize(ctx context.Context) (*models.Principal, error) {
	p := a.store.Current()
	home := "/"
	if p != nil {
		home = p.Role.HomePath()
	}
	d := a.gate.Enter(ctx, home)
	if d.Action != authz.ActionRender {
		return nil, fmt.Errorf("%s: log in first", d.State)
	}
	return a.store.Current(), nil
}

func (a *app) bulk(ctx context.Context, p *models.Principal, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: portal bulk <status> <id,id,...> [feedback] [admin id]")
	}
	target, err := models.ParseStatus(args[0])
	if err != nil {
		return err
	}
	if err := a.cache.Load(ctx, defaultScope(p)); err != nil {
		return err
	}

	out, err := a.svc.BulkTransition(ctx, p.Role, strings.Split(args[1], ","), target, complaint.Payload{
		Feedback: argAt(args, 2),
		AdminID:  argAt(args, 3),
		ActorID:  p.Profile().ID,
	})
	if err != nil {
		return err
	}
	a.printComplaints(out.Updated)
	for _, f := range out.Excluded {
		fmt.Printf("skipped %s: %v\n", f.ID, f.Err)
	}
	return nil
}

// watch keeps the cache in sync with the server's event feed until interrupted.
func (a *app) watch(ctx context.Context, p *models.Principal) error {
	if err := a.cache.Load(ctx, defaultScope(p)); err != nil {
		return err
	}
	fmt.Printf("Watching %d complaints. Ctrl-C to stop.\n", a.cache.Len())

	return eventhub.Subscribe(ctx, eventhub.FeedURL(a.cfg.APIBaseURL), a.store.Token(), func(ev models.ComplaintEvent) {
		changed := a.cache.Reconcile(ev.Complaint)
		if ev.Type == models.EventComplaintFiled {
			fmt.Println(a.loc.Format(a.cfg.Language, "complaint_filed", ev.Complaint.ComplaintNumber, ev.Complaint.ComplaintType, ev.Complaint.StudentName))
			return
		}
		if changed {
			fmt.Println(a.loc.Format(a.cfg.Language, "complaint_status", ev.Complaint.ComplaintNumber, a.statusLabel(ev.Complaint.Status)))
		}
	})
}

// defaultScope is the listing each role works from.
func defaultScope(p *models.Principal) cache.Scope {
	switch p.Role {
	case models.RoleStudent:
		return cache.FiledBy(p.Profile().ID)
	case models.RoleIntermediate:
		return cache.OpenForTriage()
	case models.RoleAdmin:
		return cache.AssignedTo(p.Profile().ID)
	default:
		return cache.All()
	}
}

func (a *app) statusLabel(s models.Status) string {
	return a.loc.GetString(a.cfg.Language, "status_"+string(s))
}

func (a *app) printComplaints(cs []models.Complaint) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NUMBER\tSTATUS\tTYPE\tASSIGNEE\tID")
	for _, c := range cs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", c.ComplaintNumber, a.statusLabel(c.Status), c.ComplaintType, c.Assignee(), c.ID)
	}
	w.Flush()
}

func argAt(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}
