package procadj

import (
	"github.com/viant/afs/storage"
	"github.com/viant/procadj/runtime/scheduler"
	"github.com/viant/procadj/service/apply"
	"github.com/viant/procadj/service/dao"
	"github.com/viant/procadj/service/dao/snapshot"
	"github.com/viant/procadj/service/event"
	"github.com/viant/procadj/service/meta"
	"github.com/viant/procadj/tracing"
	"github.com/viant/x"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Option customises the Service during construction.
type Option func(s *Service)

// WithConfig sets the engine configuration.
func WithConfig(config *Config) Option {
	return func(s *Service) { s.config = config }
}

// WithConfigURL loads the engine configuration from an afs-supported URL
// through the meta service.
func WithConfigURL(location string) Option {
	return func(s *Service) { s.configURL = location }
}

// WithSink sets the apply sink directly, bypassing the vendor registry.
func WithSink(sink apply.Sink) Option {
	return func(s *Service) { s.sink = sink }
}

// WithSinkFactory registers a named sink factory with the extension registry.
func WithSinkFactory(name string, factory func(options map[string]interface{}) (apply.Sink, error)) Option {
	return func(s *Service) {
		s.sinkFactories = append(s.sinkFactories, namedSinkFactory{name: name, factory: factory})
	}
}

// WithScheduler overrides the driver selected by Config.Driver.
func WithScheduler(driver scheduler.Scheduler) Option {
	return func(s *Service) { s.driver = driver }
}

// WithExtensionTypes sets the extension types
func WithExtensionTypes(types ...*x.Type) Option {
	return func(s *Service) {
		s.extensionTypes = types
	}
}

func WithEventService(service *event.Service) Option {
	return func(s *Service) {
		s.eventService = service
	}
}

// WithMetaService sets the meta service
func WithMetaService(service *meta.Service) Option {
	return func(s *Service) {
		s.metaService = service
	}
}

// WithMetaBaseURL sets the meta base URL
func WithMetaBaseURL(url string) Option {
	return func(s *Service) {
		s.metaBaseURL = url
	}
}

// WithMetaFsOptions with meta file system options
func WithMetaFsOptions(options ...storage.Option) Option {
	return func(s *Service) {
		s.metaFsOptions = options
	}
}

// WithSnapshotDAO sets the last-known-good snapshot store used for rollback.
func WithSnapshotDAO(service dao.Service[string, snapshot.Snapshot]) Option {
	return func(s *Service) {
		s.snapshotDAO = service
	}
}

// WithTracing configures OpenTelemetry tracing for the service. If outputFile is empty the
// stdout exporter is used; otherwise traces are written to the supplied file path. The function is
// safe to call multiple times: the first successful initialisation wins.
func WithTracing(serviceName, serviceVersion, outputFile string) Option {
	return func(s *Service) {
		_ = tracing.Init(serviceName, serviceVersion, outputFile)
	}
}

// WithTracingExporter configures OpenTelemetry tracing using a custom SpanExporter. This enables
// integrations with exporters other than the built-in stdout exporter, for example OTLP, Jaeger or
// Zipkin. The function is safe to call multiple times: the first successful initialisation wins.
func WithTracingExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) Option {
	return func(s *Service) {
		_ = tracing.InitWithExporter(serviceName, serviceVersion, exporter)
	}
}
