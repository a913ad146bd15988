package telegram

import (
	"fmt"
	"regexp"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/telebox/telebox/internal/access"
	"github.com/telebox/telebox/internal/consts"
	"github.com/telebox/telebox/internal/logger"
	"github.com/telebox/telebox/internal/metrics"
	"github.com/telebox/telebox/internal/session"
)

// rule is one entry of the ordered command table. First match wins, so the
// table lists specific commands before the bare coordinate-pair catch-all.
type rule struct {
	name       string
	re         *regexp.Regexp
	capability string       // empty: any registered user
	mode       session.Mode // empty: any mode
	handler    func(b *Bot, msg *tgbotapi.Message, args []string) error
}

type verdict int

const (
	verdictDispatch verdict = iota
	verdictNoAccess
	verdictWrongMode
	verdictUnmatched
)

type resolution struct {
	verdict verdict
	rule    *rule
	args    []string
}

type router struct {
	access *access.Lists
	rules  []rule
}

func newRouter(lists *access.Lists) *router {
	return &router{access: lists, rules: buildRules()}
}

func buildRules() []rule {
	return []rule{
		// global
		{name: "start", re: regexp.MustCompile(`^/start$`),
			handler: func(b *Bot, m *tgbotapi.Message, _ []string) error { return b.cmdStart(m) }},
		{name: "menu", re: regexp.MustCompile(`^/menu$`),
			handler: func(b *Bot, m *tgbotapi.Message, _ []string) error { return b.cmdMenu(m) }},

		// mode entries
		{name: "lokasi_entry", re: regexp.MustCompile(`^/lokasi$`), capability: consts.CapLocation,
			handler: func(b *Bot, m *tgbotapi.Message, _ []string) error { return b.cmdLocationEntry(m) }},
		{name: "rar_entry", re: regexp.MustCompile(`^/rar$`), capability: consts.CapArchive,
			handler: func(b *Bot, m *tgbotapi.Message, _ []string) error { return b.cmdArchiveEntry(m) }},
		{name: "workbook_entry", re: regexp.MustCompile(`^/workbook$`), capability: consts.CapWorkbook,
			handler: func(b *Bot, m *tgbotapi.Message, _ []string) error { return b.cmdWorkbookEntry(m) }},
		{name: "ocr_entry", re: regexp.MustCompile(`^/ocr$`), capability: consts.CapOcr,
			handler: func(b *Bot, m *tgbotapi.Message, _ []string) error { return b.cmdOcrEntry(m) }},
		{name: "kml_entry", re: regexp.MustCompile(`^/kml$`), capability: consts.CapKml,
			handler: func(b *Bot, m *tgbotapi.Message, _ []string) error { return b.cmdKmlEntry(m) }},
		{name: "geotags_entry", re: regexp.MustCompile(`^/geotags$`), capability: consts.CapGeotags,
			handler: func(b *Bot, m *tgbotapi.Message, _ []string) error { return b.cmdGeotagsEntry(m) }},

		// location mode
		{name: "alamat", re: regexp.MustCompile(`^/alamat\s+(.+)$`), capability: consts.CapLocation, mode: session.ModeLocation,
			handler: func(b *Bot, m *tgbotapi.Message, a []string) error { return b.cmdAlamat(m, a[0]) }},
		{name: "koordinat", re: regexp.MustCompile(`^/koordinat\s+(-?\d{1,3}(?:\.\d+)?)[,\s]+(-?\d{1,3}(?:\.\d+)?)$`), capability: consts.CapLocation, mode: session.ModeLocation,
			handler: func(b *Bot, m *tgbotapi.Message, a []string) error { return b.cmdKoordinat(m, a[0], a[1]) }},
		{name: "show_map", re: regexp.MustCompile(`^/show_map\s+(.+)$`), capability: consts.CapLocation, mode: session.ModeLocation,
			handler: func(b *Bot, m *tgbotapi.Message, a []string) error { return b.cmdShowMap(m, a[0]) }},
		{name: "ukur", re: regexp.MustCompile(`^/ukur(?:_(motor|mobil))?$`), capability: consts.CapLocation, mode: session.ModeLocation,
			handler: func(b *Bot, m *tgbotapi.Message, a []string) error { return b.cmdUkur(m, a[0]) }},
		{name: "batal", re: regexp.MustCompile(`^/batal$`), capability: consts.CapLocation, mode: session.ModeLocation,
			handler: func(b *Bot, m *tgbotapi.Message, _ []string) error { return b.cmdBatal(m) }},

		// archive mode
		{name: "zip_submode", re: regexp.MustCompile(`^/zip$`), capability: consts.CapArchive, mode: session.ModeArchive,
			handler: func(b *Bot, m *tgbotapi.Message, _ []string) error { return b.cmdArchiveSubmode(m, session.IntentZip) }},
		{name: "extract_submode", re: regexp.MustCompile(`^/extract$`), capability: consts.CapArchive, mode: session.ModeArchive,
			handler: func(b *Bot, m *tgbotapi.Message, _ []string) error { return b.cmdArchiveSubmode(m, session.IntentExtract) }},
		{name: "search_submode", re: regexp.MustCompile(`^/search$`), capability: consts.CapArchive, mode: session.ModeArchive,
			handler: func(b *Bot, m *tgbotapi.Message, _ []string) error { return b.cmdArchiveSubmode(m, session.IntentSearch) }},
		{name: "kirim", re: regexp.MustCompile(`^/kirim$`), capability: consts.CapArchive, mode: session.ModeArchive,
			handler: func(b *Bot, m *tgbotapi.Message, _ []string) error { return b.cmdKirim(m) }},
		{name: "cari", re: regexp.MustCompile(`^/cari\s+(.+)$`), capability: consts.CapArchive, mode: session.ModeArchive,
			handler: func(b *Bot, m *tgbotapi.Message, a []string) error { return b.cmdCari(m, a[0]) }},
		{name: "archive_stats", re: regexp.MustCompile(`^/stats$`), capability: consts.CapArchive, mode: session.ModeArchive,
			handler: func(b *Bot, m *tgbotapi.Message, _ []string) error { return b.cmdArchiveStats(m) }},
		{name: "archive_help", re: regexp.MustCompile(`^/help$`), capability: consts.CapArchive, mode: session.ModeArchive,
			handler: func(b *Bot, m *tgbotapi.Message, _ []string) error { return b.cmdArchiveHelp(m) }},

		// ocr mode
		{name: "ocr_clear", re: regexp.MustCompile(`^/ocr_clear$`), capability: consts.CapOcr, mode: session.ModeOcr,
			handler: func(b *Bot, m *tgbotapi.Message, _ []string) error { return b.cmdOcrClear(m) }},

		// kml mode
		{name: "kml_add", re: regexp.MustCompile(`^/add\s+(-?\d{1,3}(?:\.\d+)?)[,\s]+(-?\d{1,3}(?:\.\d+)?)(?:\s+(.+))?$`), capability: consts.CapKml, mode: session.ModeKml,
			handler: func(b *Bot, m *tgbotapi.Message, a []string) error { return b.cmdKmlAdd(m, a[0], a[1], a[2]) }},
		{name: "kml_addpoint", re: regexp.MustCompile(`^/addpoint\s+(.+)$`), capability: consts.CapKml, mode: session.ModeKml,
			handler: func(b *Bot, m *tgbotapi.Message, a []string) error { return b.cmdKmlAddPoint(m, a[0]) }},
		{name: "kml_alwayspoint", re: regexp.MustCompile(`^/alwayspoint(?:\s+(.+))?$`), capability: consts.CapKml, mode: session.ModeKml,
			handler: func(b *Bot, m *tgbotapi.Message, a []string) error { return b.cmdKmlAlwaysPoint(m, a[0]) }},
		{name: "kml_startline", re: regexp.MustCompile(`^/startline(?:\s+(.+))?$`), capability: consts.CapKml, mode: session.ModeKml,
			handler: func(b *Bot, m *tgbotapi.Message, a []string) error { return b.cmdKmlStartLine(m, a[0]) }},
		{name: "kml_endline", re: regexp.MustCompile(`^/endline$`), capability: consts.CapKml, mode: session.ModeKml,
			handler: func(b *Bot, m *tgbotapi.Message, _ []string) error { return b.cmdKmlEndLine(m) }},
		{name: "kml_cancelline", re: regexp.MustCompile(`^/cancelline$`), capability: consts.CapKml, mode: session.ModeKml,
			handler: func(b *Bot, m *tgbotapi.Message, _ []string) error { return b.cmdKmlCancelLine(m) }},
		{name: "kml_buat", re: regexp.MustCompile(`^/buat$`), capability: consts.CapKml, mode: session.ModeKml,
			handler: func(b *Bot, m *tgbotapi.Message, _ []string) error { return b.cmdKmlExport(m) }},
		{name: "kml_lihat", re: regexp.MustCompile(`^/lihat$`), capability: consts.CapKml, mode: session.ModeKml,
			handler: func(b *Bot, m *tgbotapi.Message, _ []string) error { return b.cmdKmlSummary(m) }},
		{name: "kml_hapus", re: regexp.MustCompile(`^/hapus$`), capability: consts.CapKml, mode: session.ModeKml,
			handler: func(b *Bot, m *tgbotapi.Message, _ []string) error { return b.cmdKmlClearAll(m) }},

		// geotags mode
		{name: "alwaystag", re: regexp.MustCompile(`^/alwaystag$`), capability: consts.CapGeotags, mode: session.ModeGeotags,
			handler: func(b *Bot, m *tgbotapi.Message, _ []string) error { return b.cmdAlwaysTag(m) }},
		{name: "set_time", re: regexp.MustCompile(`^/set_time\s+(.+)$`), capability: consts.CapGeotags, mode: session.ModeGeotags,
			handler: func(b *Bot, m *tgbotapi.Message, a []string) error { return b.cmdSetTime(m, a[0]) }},

		// bare "lat, lon" catch-all; must stay last so it cannot shadow
		// any command above
		{name: "coord_pair", re: regexp.MustCompile(`^(-?\d{1,3}(?:\.\d+)?)\s*,\s*(-?\d{1,3}(?:\.\d+)?)$`), capability: consts.CapLocation, mode: session.ModeLocation,
			handler: func(b *Bot, m *tgbotapi.Message, a []string) error { return b.cmdCoordinateText(m, a[0], a[1]) }},
	}
}

// resolve matches text against the rule table and applies the capability
// and mode preconditions. It never dispatches; the caller acts on the
// verdict.
func (r *router) resolve(text string, userID int64, mode session.Mode) resolution {
	for i := range r.rules {
		rl := &r.rules[i]
		m := rl.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}

		if rl.capability != "" && !r.access.Has(userID, rl.capability) {
			return resolution{verdict: verdictNoAccess, rule: rl}
		}
		if rl.mode != "" && rl.mode != mode {
			return resolution{verdict: verdictWrongMode, rule: rl}
		}
		return resolution{verdict: verdictDispatch, rule: rl, args: m[1:]}
	}
	return resolution{verdict: verdictUnmatched}
}

// entryCommandFor names the command that enters a mode, for wrong-mode
// guidance.
func entryCommandFor(mode session.Mode) string {
	switch mode {
	case session.ModeLocation:
		return "/lokasi"
	case session.ModeArchive:
		return "/rar"
	case session.ModeWorkbook:
		return "/workbook"
	case session.ModeOcr:
		return "/ocr"
	case session.ModeKml:
		return "/kml"
	case session.ModeGeotags:
		return "/geotags"
	}
	return "/menu"
}

func (b *Bot) routeText(msg *tgbotapi.Message) error {
	userID := msg.From.ID
	chatID := msg.Chat.ID
	mode := b.sessions.Mode(userID)

	res := b.router.resolve(msg.Text, userID, mode)
	switch res.verdict {
	case verdictNoAccess:
		metrics.RejectedUpdates.WithLabelValues("no_access").Inc()
		b.sendResponse(chatID, msgNoAccess)
		return nil

	case verdictWrongMode:
		b.sendResponse(chatID, fmt.Sprintf(
			"Perintah ini hanya berlaku di mode %s. Kirim %s terlebih dahulu.",
			res.rule.mode, entryCommandFor(res.rule.mode)))
		return nil

	case verdictDispatch:
		metrics.CommandsHandled.WithLabelValues(res.rule.name).Inc()
		if err := res.rule.handler(b, msg, res.args); err != nil {
			metrics.HandlerErrors.WithLabelValues(res.rule.name).Inc()
			return fmt.Errorf("%s: %w", res.rule.name, err)
		}
		return nil
	}

	return b.handleUnmatchedText(msg, mode)
}

// handleUnmatchedText covers text no rule claimed. Workbook mode interprets
// bare text as sheet selection (after its reserved words); other active
// modes reply with a notice; none/menu stay silent.
func (b *Bot) handleUnmatchedText(msg *tgbotapi.Message, mode session.Mode) error {
	switch mode {
	case session.ModeWorkbook:
		return b.handleWorkbookText(msg)
	case session.ModeNone, session.ModeMenu:
		logger.Debug("Ignoring free text outside modes", map[string]interface{}{
			"chat_id": msg.Chat.ID,
		})
		return nil
	default:
		b.sendResponse(msg.Chat.ID, fmt.Sprintf("Perintah tidak dikenali di mode %s. Kirim /menu untuk kembali.", mode))
		return nil
	}
}
