package report

import (
	"encoding/base64"
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"rplog/internal/message"
)

// Field names of the structpb messages exchanged with the report service
const (
	fieldUUID        = "uuid"
	fieldLaunchUUID  = "launch_uuid"
	fieldItemUUID    = "item_uuid"
	fieldProject     = "project"
	fieldName        = "name"
	fieldDescription = "description"
	fieldStartTime   = "start_time"
	fieldEndTime     = "end_time"
	fieldStatus      = "status"
	fieldLogger      = "logger"
	fieldLevel       = "level"
	fieldMessage     = "message"
	fieldTime        = "time"
	fieldFile        = "file"
	fieldContentType = "content_type"
	fieldContent     = "content"
)

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

func encodeLaunch(project string, l Launch) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		fieldUUID:        l.UUID,
		fieldProject:     project,
		fieldName:        l.Name,
		fieldDescription: l.Description,
		fieldStartTime:   formatTime(l.StartTime),
		fieldEndTime:     formatTime(l.EndTime),
		fieldStatus:      string(l.Status),
	})
}

func encodeItem(project string, it Item) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		fieldUUID:       it.UUID,
		fieldLaunchUUID: it.LaunchUUID,
		fieldProject:    project,
		fieldName:       it.Name,
		fieldStartTime:  formatTime(it.StartTime),
		fieldEndTime:    formatTime(it.EndTime),
		fieldStatus:     string(it.Status),
	})
}

func encodeEntry(project string, e Entry) (*structpb.Struct, error) {
	fields := map[string]interface{}{
		fieldLaunchUUID: e.LaunchUUID,
		fieldItemUUID:   e.ItemUUID,
		fieldProject:    project,
		fieldLogger:     e.Record.LoggerName,
		fieldLevel:      e.Record.Level.String(),
		fieldMessage:    e.Record.Message,
		fieldTime:       formatTime(e.Record.Time),
	}

	switch att := e.Record.Attachment.(type) {
	case nil:
	case message.InlineBytes:
		fields[fieldFile] = map[string]interface{}{
			fieldName:        att.Name,
			fieldContentType: att.MimeType,
			fieldContent:     base64.StdEncoding.EncodeToString(att.Data),
		}
	default:
		return nil, fmt.Errorf("unresolved attachment %T", att)
	}

	return structpb.NewStruct(fields)
}

func stringField(s *structpb.Struct, key string) string {
	return s.GetFields()[key].GetStringValue()
}

// DecodeLaunch reads a launch from a StartLaunch or FinishLaunch request
func DecodeLaunch(s *structpb.Struct) (Launch, error) {
	start, err := parseTime(stringField(s, fieldStartTime))
	if err != nil {
		return Launch{}, fmt.Errorf("invalid start time: %w", err)
	}
	end, err := parseTime(stringField(s, fieldEndTime))
	if err != nil {
		return Launch{}, fmt.Errorf("invalid end time: %w", err)
	}
	return Launch{
		UUID:        stringField(s, fieldUUID),
		Name:        stringField(s, fieldName),
		Description: stringField(s, fieldDescription),
		StartTime:   start,
		EndTime:     end,
		Status:      Status(stringField(s, fieldStatus)),
	}, nil
}

// DecodeItem reads an item from a StartItem or FinishItem request
func DecodeItem(s *structpb.Struct) (Item, error) {
	start, err := parseTime(stringField(s, fieldStartTime))
	if err != nil {
		return Item{}, fmt.Errorf("invalid start time: %w", err)
	}
	end, err := parseTime(stringField(s, fieldEndTime))
	if err != nil {
		return Item{}, fmt.Errorf("invalid end time: %w", err)
	}
	return Item{
		UUID:       stringField(s, fieldUUID),
		LaunchUUID: stringField(s, fieldLaunchUUID),
		Name:       stringField(s, fieldName),
		StartTime:  start,
		EndTime:    end,
		Status:     Status(stringField(s, fieldStatus)),
	}, nil
}

// DecodeEntry reads a log entry from a SaveLog request
func DecodeEntry(s *structpb.Struct) (Entry, error) {
	level, err := message.ParseLevel(stringField(s, fieldLevel))
	if err != nil {
		return Entry{}, err
	}
	ts, err := parseTime(stringField(s, fieldTime))
	if err != nil {
		return Entry{}, fmt.Errorf("invalid time: %w", err)
	}

	e := Entry{
		LaunchUUID: stringField(s, fieldLaunchUUID),
		ItemUUID:   stringField(s, fieldItemUUID),
		Record: message.LogRecord{
			LoggerName: stringField(s, fieldLogger),
			Level:      level,
			Message:    stringField(s, fieldMessage),
			Time:       ts,
		},
	}

	if file := s.GetFields()[fieldFile].GetStructValue(); file != nil {
		data, err := base64.StdEncoding.DecodeString(stringField(file, fieldContent))
		if err != nil {
			return Entry{}, fmt.Errorf("invalid file content: %w", err)
		}
		e.Record.Attachment = message.InlineBytes{
			Name:     stringField(file, fieldName),
			MimeType: stringField(file, fieldContentType),
			Data:     data,
		}
	}
	return e, nil
}
