// Package dashboard provides the server-build dashboard API backed by fixture data.
//
// # Overview
//
// This package models the rack build pipeline across the three regions
// (CBG, DUB, DAL) and serves the read and action endpoints the frontend
// consumes: current build status, per-date build history, depot
// preconfigurations, preconfig pushes, server assignment, and per-host
// details.
//
// Data comes from an in-memory fixture store standing in for the build
// system database. The HTTP handlers, validation, and response shapes are
// final; only the storage behind Service is a stand-in.
//
// # Usage Example
//
// Register the routes behind an auth guard:
//
//	svc := dashboard.NewService(logger, nil)
//	h := dashboard.NewHandler(svc, logger)
//	h.RegisterRoutes(router, guard)
//
// # Related Packages
//
//   - pkg/api: Mounts these routes on the server router
//   - pkg/middleware: Provides the auth guard protecting every route
package dashboard
