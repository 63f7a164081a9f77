package bot

import (
	coreconfig "deckbot/core/config"
	"deckbot/core/telegram"
	"deckbot/core/telegram/commands"
	"deckbot/core/telegram/middleware"
	"deckbot/core/telegram/router"
	"deckbot/core/telegram/session"
	"deckbot/deck"
)

// App wires the deck store, the dialog session registry, and the dispatch
// table into a runnable Telegram bot.
type App struct {
	cfg      *coreconfig.Config
	store    *deck.Store
	sessions *session.Registry
	reg      *telegram.Registry
}

// New assembles the full dispatch table. Every command, button key, and
// dialog continuation the bot understands is registered here; nothing is
// resolved dynamically at update time.
func New(cfg *coreconfig.Config, store *deck.Store) (*App, error) {
	app := &App{
		cfg:      cfg,
		store:    store,
		sessions: session.NewRegistry(),
		reg:      telegram.NewRegistry(),
	}

	app.reg.RegisterCommand("/start", commands.Command{
		Handler:     app.start,
		Description: "Show the bot menu",
	})
	app.reg.RegisterCommand("/admin", commands.Command{
		Handler:     app.adminMenu,
		Description: "Open the admin menu",
		AdminOnly:   true,
		Hidden:      true,
	})

	app.reg.SetTextFallback(app.unknown)

	type callbackDef struct {
		key string
		h   telegram.Handler
	}
	cbs := []callbackDef{
		{cbDeckDraw, telegram.Handler{Func: app.draw}},
		{cbDeckList, telegram.Handler{Func: app.listCards, AdminOnly: true}},
		{cbDeckAdd, telegram.Handler{Func: app.beginAddCard, AdminOnly: true}},
		{cbDeckRemove, telegram.Handler{Func: app.beginRemoveCard, AdminOnly: true}},
		{cbAdminsList, telegram.Handler{Func: app.listAdmins, AdminOnly: true}},
		{cbAdminsAdd, telegram.Handler{Func: app.beginAddAdmin, AdminOnly: true}},
		{cbAdminsRemove, telegram.Handler{Func: app.beginRemoveAdmin, AdminOnly: true}},
		{cbDataExport, telegram.Handler{Func: app.exportData, AdminOnly: true}},
		{cbDataImport, telegram.Handler{Func: app.beginImport, AdminOnly: true}},
	}
	for _, cb := range cbs {
		if err := app.reg.RegisterCallback(cb.key, cb.h); err != nil {
			return nil, err
		}
	}

	conts := map[session.Action]telegram.Handler{
		actionNewCard:     {Func: app.onNewCard, AdminOnly: true},
		actionRemoveCard:  {Func: app.onRemoveCard, AdminOnly: true},
		actionNewAdmin:    {Func: app.onNewAdmin, AdminOnly: true},
		actionRemoveAdmin: {Func: app.onRemoveAdmin, AdminOnly: true},
		actionImport:      {Func: app.onImport, AdminOnly: true},
	}
	for action, h := range conts {
		if err := app.reg.RegisterContinuation(action, h); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// TelegramRunOptions builds the runtime wiring consumed by the bot runner.
func (a *App) TelegramRunOptions() (telegram.RunOptions, error) {
	routeOpts := router.Options{
		Access: middleware.AccessOptions{
			Checker:  a.store,
			OnReject: a.unknown,
		},
		Errors: middleware.ErrorReplyOptions{
			Verbose: a.cfg.Errors.Verbose,
		},
	}

	routes := router.CommandRoutes(a.reg, routeOpts)
	routes = append(routes, router.CallbackRoute(a.reg, routeOpts))
	routes = append(routes, router.TextRoutes(a.sessions, a.reg, routeOpts)...)

	return telegram.RunOptions{
		Config:      a.cfg,
		Registry:    a.reg,
		Middlewares: telegram.DefaultMiddlewares(a.cfg, nil),
		Routes:      routes,
	}, nil
}
