// Package observability sets up OpenTelemetry export for pipehttp
// applications.
//
// The httpclient package records spans and metrics against the global
// providers unless explicit ones are passed. Setup installs OTLP/HTTP
// exporters as those globals:
//
//	shutdown, err := observability.Setup(ctx, cfg, log)
//	if err != nil {
//		return err
//	}
//	defer shutdown(ctx)
package observability
