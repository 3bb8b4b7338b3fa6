// Package build runs build passes over a snapshot.Snapshot.
//
// A Driver clears the snapshot, runs the caller's build function and
// checks that every Push was matched by a Pop. Stack-discipline
// violations panic inside the snapshot package; the Driver recovers
// them, clears the snapshot and returns the *errors.TreeError, so a
// broken pass never leaves a half-built tree behind.
//
// Each pass is logged with slog, traced with an OpenTelemetry span and,
// when a Metrics value is attached, recorded in Prometheus.
//
//	drv := build.New(
//	    build.WithLogger(logger),
//	    build.WithMetrics(build.NewMetrics(build.WithRegistry(reg))),
//	)
//	stats, err := drv.Run(ctx, snap, func(ctx context.Context, s *snapshot.Snapshot) error {
//	    s.Scope(root, func(snapshot.ElementID) { ... })
//	    return nil
//	})
package build
