// Package middleware provides HTTP middleware for routers built with the
// router package.
//
// All middleware follow the same pattern: a config struct and a
// constructor returning a router.MiddlewareFunc. Constructors that can
// fail on bad configuration also return an error.
//
//	r := router.New()
//	r.Use(
//	    middleware.RequestID(middleware.RequestIDConfig{TrustIncoming: true}),
//	    middleware.Recovery(middleware.RecoveryConfig{LogFunc: logPanic}),
//	    middleware.Language(middleware.LanguageConfig{}),
//	)
//
// Language resolves the request language against the i18n message catalog
// and stores it in the request context, where localized handlers and
// error messages pick it up via i18n.FromContext.
package middleware
