package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appcfg "github.com/veskur/warboard-bot/internal/config"
	"github.com/veskur/warboard-bot/internal/domain"
	"github.com/veskur/warboard-bot/internal/gateway"
	"github.com/veskur/warboard-bot/internal/ladder"
	"github.com/veskur/warboard-bot/internal/msgcat"
	"github.com/veskur/warboard-bot/internal/obslog"
	"github.com/veskur/warboard-bot/internal/render"
	"github.com/veskur/warboard-bot/internal/report"
	"github.com/veskur/warboard-bot/internal/roster"
	"github.com/veskur/warboard-bot/internal/store"
)

type app struct {
	cfg     *appcfg.AppConfig
	client  *gateway.Client
	ladders *store.LadderStore
	repo    store.Repository
	msgs    *msgcat.Catalog
	logger  *zap.Logger
}

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("log init error: %v", err)
	}
	logger := obslog.L()

	msgs, err := msgcat.New(cfg.MessageDir)
	if err != nil {
		logger.Fatal("message catalog init", zap.Error(err))
	}

	if cfg.RedisURL == "" {
		logger.Fatal("REDIS_URL is required for ladder storage")
	}
	ladders, err := store.OpenLadderStore(cfg.RedisURL)
	if err != nil {
		logger.Fatal("ladder store init", zap.Error(err))
	}

	var repo store.Repository
	if cfg.DatabaseURL != "" {
		r, db, err := store.OpenRepository(cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("repository init", zap.Error(err))
		}
		defer db.Close()
		repo = r
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory repository")
		repo = store.NewMemoryRepository()
	}

	a := &app{
		cfg:     cfg,
		client:  gateway.NewClient(cfg.GatewayBaseURL),
		ladders: ladders,
		repo:    repo,
		msgs:    msgs,
		logger:  logger,
	}

	ws := gateway.NewWebSocket(cfg.GatewayWSURL, 5)
	ws.OnState(func(state gateway.State) {
		logger.Info("gateway state", zap.String("state", string(state)))
	})
	ws.OnMessage(func(msg *gateway.Message) {
		if msg == nil || strings.TrimSpace(msg.Text) == "" {
			return
		}
		if len(cfg.AllowedRooms) > 0 && !roomAllowed(cfg.AllowedRooms, msg.Room) {
			return
		}
		if !strings.HasPrefix(strings.TrimSpace(msg.Text), cfg.BotPrefix) {
			return
		}
		// Keep the read loop free.
		go a.handleCommand(msg)
	})

	cctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := ws.Connect(cctx); err != nil {
		cancel()
		logger.Fatal("gateway connect", zap.Error(err))
	}
	cancel()
	logger.Info("warboard bot running", zap.String("prefix", cfg.BotPrefix))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	_ = ws.Close(context.Background())
	_ = ladders.Close()
	_ = logger.Sync()
}

func (a *app) handleCommand(msg *gateway.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	raw := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(msg.Text), a.cfg.BotPrefix))
	if raw == "" {
		a.reply(ctx, msg.Room, a.msgs.MustRender("help.main", map[string]string{"Prefix": a.cfg.BotPrefix}))
		return
	}
	parts := strings.Fields(firstLine(raw))
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help":
		a.reply(ctx, msg.Room, a.msgs.MustRender("help.main", map[string]string{"Prefix": a.cfg.BotPrefix}))
	case "scan":
		a.handleScan(ctx, msg, args)
	case "roster":
		a.handleRoster(ctx, msg, args)
	case "ladder":
		a.handleLadder(ctx, msg, raw, args)
	case "month":
		a.handleMonth(ctx, msg, args, 0)
	case "payout":
		a.handlePayout(ctx, msg, args)
	case "members":
		a.handleMembers(ctx, msg)
	case "member":
		a.handleMember(ctx, msg, args)
	case "invasion":
		a.handleInvasion(ctx, msg, args)
	default:
		a.replyBadRequest(ctx, msg.Room)
	}
}

// handleScan imports a scoreboard screenshot: fetch the OCR block graph for
// the attached upload and resolve it into a ladder. A re-scan of the same
// invasion overwrites the stored ladder.
func (a *app) handleScan(ctx context.Context, msg *gateway.Message, args []string) {
	if len(args) < 1 || msg.UploadID == "" {
		a.replyBadRequest(ctx, msg.Room)
		return
	}
	invasion, err := parseInvasionName(args[0])
	if err != nil {
		a.replyBadRequest(ctx, msg.Room)
		return
	}

	payload, err := a.client.FetchScan(ctx, msg.UploadID)
	if err != nil {
		a.replyInternal(ctx, msg.Room, "fetch scan", err)
		return
	}

	parser, err := a.newParser(ctx)
	if err != nil {
		a.replyInternal(ctx, msg.Room, "load directory", err)
		return
	}
	l, err := parser.FromTable(payload.Blocks, invasion)
	if err != nil {
		// Structural failure: this image is rejected, nothing is stored.
		a.logger.Warn("scan rejected", zap.String("invasion", invasion), zap.Error(err))
		a.replyBadRequest(ctx, msg.Room)
		return
	}
	a.storeLadder(ctx, msg.Room, l)
}

// handleRoster imports a war-board roster screen: participation without
// scores.
func (a *app) handleRoster(ctx context.Context, msg *gateway.Message, args []string) {
	if len(args) < 1 {
		a.replyBadRequest(ctx, msg.Room)
		return
	}
	invasion, err := parseInvasionName(args[0])
	if err != nil {
		a.replyBadRequest(ctx, msg.Room)
		return
	}

	// Without an upload this is a view of the stored roster ladder.
	if msg.UploadID == "" {
		a.showLadder(ctx, msg.Room, invasion)
		return
	}

	payload, err := a.client.FetchScan(ctx, msg.UploadID)
	if err != nil {
		a.replyInternal(ctx, msg.Room, "fetch scan", err)
		return
	}
	parser, err := a.newParser(ctx)
	if err != nil {
		a.replyInternal(ctx, msg.Room, "load directory", err)
		return
	}
	l, res, err := parser.FromRoster(payload.Blocks, invasion)
	if err != nil {
		a.replyInternal(ctx, msg.Room, "parse roster", err)
		return
	}
	if err := a.ladders.Save(ctx, l); err != nil {
		a.replyInternal(ctx, msg.Room, "save roster", err)
		return
	}
	a.reply(ctx, msg.Room, a.msgs.MustRender("roster.uploaded", map[string]string{
		"Invasion":  invasion,
		"Matched":   strconv.Itoa(len(res.Matched)),
		"Unmatched": strconv.Itoa(len(res.Unmatched)),
	})+"\n"+render.RosterSummary(invasion, res))
}

func (a *app) handleLadder(ctx context.Context, msg *gateway.Message, raw string, args []string) {
	if len(args) < 1 {
		a.replyBadRequest(ctx, msg.Room)
		return
	}
	switch strings.ToLower(args[0]) {
	case "edit":
		a.handleLadderEdit(ctx, msg, args[1:])
	case "import":
		a.handleLadderImport(ctx, msg, raw, args[1:])
	case "csv":
		a.handleLadderCSV(ctx, msg, args[1:])
	default:
		invasion, err := parseInvasionName(args[0])
		if err != nil {
			a.replyBadRequest(ctx, msg.Room)
			return
		}
		a.showLadder(ctx, msg.Room, invasion)
	}
}

func (a *app) showLadder(ctx context.Context, room, invasion string) {
	l, err := a.ladders.Load(ctx, invasion)
	if err != nil {
		a.replyInternal(ctx, room, "load ladder", err)
		return
	}
	if l == nil {
		a.reply(ctx, room, a.msgs.MustRender("ladder.missing", map[string]string{"Invasion": invasion}))
		return
	}
	out := render.LadderTable(l)
	if until := l.ContiguousFrom1Until(); until < l.Count() {
		out += a.msgs.MustRender("ladder.incomplete", map[string]string{
			"Invasion": invasion,
			"Until":    strconv.Itoa(until),
			"Count":    strconv.Itoa(l.Count()),
		})
	}
	a.reply(ctx, room, out)
}

// handleLadderEdit repairs one OCR-mangled row. Admin only; every edit gets an
// audit id so the change can be traced in the log.
func (a *app) handleLadderEdit(ctx context.Context, msg *gateway.Message, args []string) {
	if !a.isAdmin(ctx, msg.Sender) {
		a.reply(ctx, msg.Room, a.msgs.MustRender("errors.not_admin", nil))
		return
	}
	if len(args) < 3 {
		a.replyBadRequest(ctx, msg.Room)
		return
	}
	invasion, err := parseInvasionName(args[0])
	if err != nil {
		a.replyBadRequest(ctx, msg.Room)
		return
	}
	rank, err := strconv.Atoi(args[1])
	if err != nil || rank < 1 || rank > 99 {
		a.replyBadRequest(ctx, msg.Room)
		return
	}

	req := ladder.EditRequest{Rank: rank}
	for _, kv := range args[2:] {
		key, val, ok := strings.Cut(kv, "=")
		if !ok {
			a.replyBadRequest(ctx, msg.Room)
			return
		}
		switch strings.ToLower(key) {
		case "new":
			n, err := strconv.Atoi(val)
			if err != nil || n < 1 || n > 99 {
				a.replyBadRequest(ctx, msg.Room)
				return
			}
			req.NewRank = &n
		case "player":
			v := val
			req.Player = &v
		case "score":
			n, err := strconv.Atoi(val)
			if err != nil {
				a.replyBadRequest(ctx, msg.Room)
				return
			}
			req.Score = &n
		case "member":
			b, err := strconv.ParseBool(val)
			if err != nil {
				a.replyBadRequest(ctx, msg.Room)
				return
			}
			req.Member = &b
		default:
			a.replyBadRequest(ctx, msg.Room)
			return
		}
	}

	l, err := a.ladders.Load(ctx, invasion)
	if err != nil {
		a.replyInternal(ctx, msg.Room, "load ladder", err)
		return
	}
	if l == nil {
		a.reply(ctx, msg.Room, a.msgs.MustRender("ladder.missing", map[string]string{"Invasion": invasion}))
		return
	}

	diff, err := l.Edit(req)
	if err != nil {
		a.reply(ctx, msg.Room, err.Error())
		return
	}
	if err := a.ladders.Save(ctx, l); err != nil {
		a.replyInternal(ctx, msg.Room, "save ladder", err)
		return
	}

	audit := uuid.NewString()
	a.logger.Info("ladder edited",
		zap.String("invasion", invasion),
		zap.String("editor", msg.Sender),
		zap.String("diff", diff),
		zap.String("audit", audit),
	)
	a.reply(ctx, msg.Room, a.msgs.MustRender("ladder.edited", map[string]string{
		"Invasion": invasion,
		"Diff":     diff,
		"Audit":    audit,
	}))
}

// handleLadderImport loads a manually corrected CSV pasted below the command
// line.
func (a *app) handleLadderImport(ctx context.Context, msg *gateway.Message, raw string, args []string) {
	if !a.isAdmin(ctx, msg.Sender) {
		a.reply(ctx, msg.Room, a.msgs.MustRender("errors.not_admin", nil))
		return
	}
	if len(args) < 1 {
		a.replyBadRequest(ctx, msg.Room)
		return
	}
	invasion, err := parseInvasionName(args[0])
	if err != nil {
		a.replyBadRequest(ctx, msg.Room)
		return
	}
	_, body, ok := strings.Cut(raw, "\n")
	if !ok || strings.TrimSpace(body) == "" {
		a.replyBadRequest(ctx, msg.Room)
		return
	}
	parser, err := a.newParser(ctx)
	if err != nil {
		a.replyInternal(ctx, msg.Room, "load directory", err)
		return
	}
	l, err := parser.FromCSV(strings.NewReader(strings.TrimSpace(body)), invasion)
	if err != nil {
		a.replyInternal(ctx, msg.Room, "parse csv", err)
		return
	}
	a.storeLadder(ctx, msg.Room, l)
}

func (a *app) handleLadderCSV(ctx context.Context, msg *gateway.Message, args []string) {
	if len(args) < 1 {
		a.replyBadRequest(ctx, msg.Room)
		return
	}
	invasion, err := parseInvasionName(args[0])
	if err != nil {
		a.replyBadRequest(ctx, msg.Room)
		return
	}
	l, err := a.ladders.Load(ctx, invasion)
	if err != nil {
		a.replyInternal(ctx, msg.Room, "load ladder", err)
		return
	}
	if l == nil {
		a.reply(ctx, msg.Room, a.msgs.MustRender("ladder.missing", map[string]string{"Invasion": invasion}))
		return
	}
	out, err := render.LadderCSV(l)
	if err != nil {
		a.replyInternal(ctx, msg.Room, "render csv", err)
		return
	}
	a.reply(ctx, msg.Room, out)
}

func (a *app) handleMonth(ctx context.Context, msg *gateway.Message, args []string, pool int) {
	if len(args) < 1 || len(args[0]) != 6 {
		a.replyBadRequest(ctx, msg.Room)
		return
	}
	month := args[0]
	if _, err := strconv.Atoi(month); err != nil {
		a.replyBadRequest(ctx, msg.Room)
		return
	}

	rep, err := a.generateMonth(ctx, month)
	if err != nil {
		a.replyInternal(ctx, msg.Room, "generate month", err)
		return
	}
	if len(rep.Invasions) == 0 {
		a.reply(ctx, msg.Room, a.msgs.MustRender("month.empty", map[string]string{"Month": month}))
		return
	}
	a.reply(ctx, msg.Room, render.MonthlyTable(rep, pool))
}

func (a *app) handlePayout(ctx context.Context, msg *gateway.Message, args []string) {
	if len(args) < 2 {
		a.replyBadRequest(ctx, msg.Room)
		return
	}
	pool, err := strconv.Atoi(args[1])
	if err != nil || pool < 0 {
		a.replyBadRequest(ctx, msg.Room)
		return
	}
	if pool == 0 {
		pool = a.cfg.DefaultGoldPool
	}
	a.handleMonth(ctx, msg, args[:1], pool)
}

// generateMonth recomputes the month from scratch and replaces the stored
// rows.
func (a *app) generateMonth(ctx context.Context, month string) (*report.MonthReport, error) {
	members, err := a.repo.ListMembers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	invasions, err := a.repo.ListInvasions(ctx, month)
	if err != nil {
		return nil, fmt.Errorf("list invasions: %w", err)
	}
	ladders, err := a.ladders.LoadMonth(ctx, month)
	if err != nil {
		return nil, fmt.Errorf("load ladders: %w", err)
	}

	rep := report.NewAggregator(a.logger).Generate(month, members, invasions, ladders)
	if err := a.repo.ReplaceMonthlyStats(ctx, month, rep.Rows); err != nil {
		return nil, fmt.Errorf("store monthly stats: %w", err)
	}
	return rep, nil
}

func (a *app) handleMembers(ctx context.Context, msg *gateway.Message) {
	members, err := a.repo.ListMembers(ctx)
	if err != nil {
		a.replyInternal(ctx, msg.Room, "list members", err)
		return
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Members (%d):\n", len(members)))
	for _, m := range members {
		flags := ""
		if m.Salary {
			flags += " salary"
		}
		if m.Admin {
			flags += " admin"
		}
		sb.WriteString(fmt.Sprintf("%-20s %s%s\n", m.Player, m.Faction, flags))
	}
	a.reply(ctx, msg.Room, sb.String())
}

// handleMember adds or removes a directory entry. Admin only.
func (a *app) handleMember(ctx context.Context, msg *gateway.Message, args []string) {
	if !a.isAdmin(ctx, msg.Sender) {
		a.reply(ctx, msg.Room, a.msgs.MustRender("errors.not_admin", nil))
		return
	}
	if len(args) < 2 {
		a.replyBadRequest(ctx, msg.Room)
		return
	}
	switch strings.ToLower(args[0]) {
	case "add":
		rec := domain.MemberRecord{
			Player:  args[1],
			Faction: domain.Faction(a.cfg.CompanyFaction),
			Salary:  true,
		}
		for _, kv := range args[2:] {
			key, val, ok := strings.Cut(kv, "=")
			if !ok {
				a.replyBadRequest(ctx, msg.Room)
				return
			}
			switch strings.ToLower(key) {
			case "salary":
				b, err := strconv.ParseBool(val)
				if err != nil {
					a.replyBadRequest(ctx, msg.Room)
					return
				}
				rec.Salary = b
			case "admin":
				b, err := strconv.ParseBool(val)
				if err != nil {
					a.replyBadRequest(ctx, msg.Room)
					return
				}
				rec.Admin = b
			case "discord":
				rec.Discord = val
			default:
				a.replyBadRequest(ctx, msg.Room)
				return
			}
		}
		if err := a.repo.UpsertMember(ctx, rec); err != nil {
			a.replyInternal(ctx, msg.Room, "upsert member", err)
			return
		}
		a.reply(ctx, msg.Room, fmt.Sprintf("Member %s saved.", rec.Player))
	case "remove":
		if err := a.repo.DeleteMember(ctx, args[1]); err != nil {
			a.replyInternal(ctx, msg.Room, "delete member", err)
			return
		}
		a.reply(ctx, msg.Room, fmt.Sprintf("Member %s removed.", args[1]))
	default:
		a.replyBadRequest(ctx, msg.Room)
	}
}

// handleInvasion registers a dated invasion and its outcome. Admin only.
func (a *app) handleInvasion(ctx context.Context, msg *gateway.Message, args []string) {
	if !a.isAdmin(ctx, msg.Sender) {
		a.reply(ctx, msg.Room, a.msgs.MustRender("errors.not_admin", nil))
		return
	}
	if len(args) < 2 {
		a.replyBadRequest(ctx, msg.Room)
		return
	}
	name, err := parseInvasionName(args[0])
	if err != nil {
		a.replyBadRequest(ctx, msg.Room)
		return
	}
	win := false
	switch strings.ToLower(args[1]) {
	case "win", "w":
		win = true
	case "loss", "l":
	default:
		a.replyBadRequest(ctx, msg.Room)
		return
	}

	date, _ := strconv.Atoi(name[:8])
	inv := domain.Invasion{
		Name:       name,
		Settlement: name[9:],
		Win:        win,
		Date:       date,
	}
	if err := a.repo.UpsertInvasion(ctx, inv); err != nil {
		a.replyInternal(ctx, msg.Room, "upsert invasion", err)
		return
	}
	a.reply(ctx, msg.Room, fmt.Sprintf("Invasion %s recorded (win=%t).", name, win))
}

func (a *app) storeLadder(ctx context.Context, room string, l *ladder.Ladder) {
	if err := a.ladders.Save(ctx, l); err != nil {
		a.replyInternal(ctx, room, "save ladder", err)
		return
	}
	out := a.msgs.MustRender("ladder.uploaded", map[string]string{
		"Invasion": l.InvasionName,
		"Count":    strconv.Itoa(l.Count()),
		"Members":  strconv.Itoa(l.MemberCount()),
	})
	if until := l.ContiguousFrom1Until(); until < l.Count() {
		out += "\n" + a.msgs.MustRender("ladder.incomplete", map[string]string{
			"Invasion": l.InvasionName,
			"Until":    strconv.Itoa(until),
			"Count":    strconv.Itoa(l.Count()),
		})
	}
	a.reply(ctx, room, out)
}

// newParser snapshots the member directory for one import.
func (a *app) newParser(ctx context.Context) (*ladder.Parser, error) {
	members, err := a.repo.ListMembers(ctx)
	if err != nil {
		return nil, err
	}
	dir := roster.NewDirectory(members, roster.OZeroNormalizer{})
	return ladder.NewParser(dir, a.logger)
}

func (a *app) isAdmin(ctx context.Context, sender string) bool {
	members, err := a.repo.ListMembers(ctx)
	if err != nil {
		a.logger.Error("admin check failed", zap.Error(err))
		return false
	}
	sender = strings.TrimSpace(sender)
	for _, m := range members {
		if m.Admin && m.Player == sender {
			return true
		}
	}
	return false
}

func (a *app) reply(ctx context.Context, room, text string) {
	if err := a.client.SendMessage(ctx, room, text); err != nil {
		a.logger.Error("send reply", zap.String("room", room), zap.Error(err))
	}
}

func (a *app) replyBadRequest(ctx context.Context, room string) {
	a.reply(ctx, room, a.msgs.MustRender("errors.bad_request", map[string]string{"Prefix": a.cfg.BotPrefix}))
}

func (a *app) replyInternal(ctx context.Context, room, op string, err error) {
	a.logger.Error(op, zap.Error(err))
	a.reply(ctx, room, a.msgs.MustRender("errors.internal", nil))
}

// parseInvasionName validates a YYYYMMDD-settlement identifier against the
// known settlement list.
func parseInvasionName(s string) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) < 10 || s[8] != '-' {
		return "", fmt.Errorf("invalid invasion name %q", s)
	}
	if _, err := strconv.Atoi(s[:8]); err != nil {
		return "", fmt.Errorf("invalid invasion date in %q", s)
	}
	settlement := s[9:]
	for _, known := range domain.Settlements {
		if settlement == known {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown settlement %q", settlement)
}

func roomAllowed(allowed []string, room string) bool {
	for _, r := range allowed {
		if r == room {
			return true
		}
	}
	return false
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
