package logging

import (
	"context"
)

const (
	TraceIDKey      = "trace_id"
	MsgIDKey        = "msg_id"
	ConversationKey = "conversation_id"
	ServiceNameKey  = "service_name"
)

func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

func WithMsgID(ctx context.Context, msgID string) context.Context {
	return context.WithValue(ctx, MsgIDKey, msgID)
}

func WithConversation(ctx context.Context, conversationID string) context.Context {
	return context.WithValue(ctx, ConversationKey, conversationID)
}

func WithServiceName(ctx context.Context, serviceName string) context.Context {
	return context.WithValue(ctx, ServiceNameKey, serviceName)
}

func GetTraceID(ctx context.Context) string {
	if traceID, ok := ctx.Value(TraceIDKey).(string); ok {
		return traceID
	}
	return ""
}

func GetMsgID(ctx context.Context) string {
	if msgID, ok := ctx.Value(MsgIDKey).(string); ok {
		return msgID
	}
	return ""
}

func GetConversation(ctx context.Context) string {
	if conversationID, ok := ctx.Value(ConversationKey).(string); ok {
		return conversationID
	}
	return ""
}

func GetServiceName(ctx context.Context) string {
	if serviceName, ok := ctx.Value(ServiceNameKey).(string); ok {
		return serviceName
	}
	return ""
}

func GetLogFields(ctx context.Context) []interface{} {
	fields := make([]interface{}, 0, 8)

	if traceID := GetTraceID(ctx); traceID != "" {
		fields = append(fields, "trace_id", traceID)
	}

	if msgID := GetMsgID(ctx); msgID != "" {
		fields = append(fields, "msg_id", msgID)
	}

	if conversationID := GetConversation(ctx); conversationID != "" {
		fields = append(fields, "conversation_id", conversationID)
	}

	if serviceName := GetServiceName(ctx); serviceName != "" {
		fields = append(fields, "service_name", serviceName)
	}

	return fields
}
