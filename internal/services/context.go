package services

import "context"

type contextKey string

const (
	instanceKey  contextKey = "instance"
	pluginKey    contextKey = "plugin"
	requestIDKey contextKey = "request_id"
)

// WithInstance annotates context with the publish instance name.
func WithInstance(ctx context.Context, name string) context.Context {
	if name == "" {
		return ctx
	}
	return context.WithValue(ctx, instanceKey, name)
}

// InstanceFromContext returns the publish instance name if present.
func InstanceFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(instanceKey).(string)
	return v, ok && v != ""
}

// WithPlugin annotates context with the running plugin name.
func WithPlugin(ctx context.Context, plugin string) context.Context {
	if plugin == "" {
		return ctx
	}
	return context.WithValue(ctx, pluginKey, plugin)
}

// PluginFromContext returns the plugin name if present.
func PluginFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(pluginKey).(string)
	return v, ok && v != ""
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
