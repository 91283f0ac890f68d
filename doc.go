// Package procadj computes per-process importance over a mutable graph of
// client to host dependencies.
//
// Each tracked process carries locally observable facts (top slot, visible
// activities, foreground services, started services, …).  Service bindings
// and provider acquisitions form directed edges along which importance
// propagates from clients to hosts.  A recompute pass assigns every process
// a tuple of adjustment score, run state and sched group, and hands the
// changed tuples to a pluggable apply sink.
//
// The engine ships with the service layers:
//
//   - runtime/scheduler – bucket fixed-point driver plus a sequence-stamp
//     linear driver kept for cross-checking
//   - policy            – the ordered binding decision table
//   - service/apply     – sinks receiving finished change batches
//   - service/event     – typed transition broadcasting
//
// procadj is designed to be embedded in host applications.  End-users
// typically interact with the engine via the high-level Service façade
// exposed by the root package:
//
//	srv, _ := procadj.New(procadj.WithSink(sink))
//	_ = srv.ProcessStarted(ctx, "pid:1201", proc.Facts{Top: true})
//	_, _ = srv.Bind(ctx, proc.Edge{Client: "pid:1201", Host: "pid:1305"})
//	cur, _ := srv.Current("pid:1305")
//
// For more details see the README and individual sub-packages.
package procadj
