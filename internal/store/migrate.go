package store

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

const (
	tableLevels    = "user_skill_levels"
	tableContent   = "content_items"
	tableUsage     = "usage_records"
	tableLLMEvents = "llm_request_events"
)

var (
	// UserSkillLevelsColumns holds the columns for the "user_skill_levels" table.
	UserSkillLevelsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "user_id", Type: field.TypeString},
		{Name: "skill_area", Type: field.TypeString},
		{Name: "exercise_type", Type: field.TypeString},
		{Name: "numeric_level", Type: field.TypeFloat64},
		{Name: "band_level", Type: field.TypeString},
		{Name: "attempts_at_band", Type: field.TypeInt, Default: 0},
		{Name: "correct_streak", Type: field.TypeInt, Default: 0},
		{Name: "failure_streak", Type: field.TypeInt, Default: 0},
		{Name: "version", Type: field.TypeInt64, Default: 0},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	// UserSkillLevelsTable holds the schema information for the "user_skill_levels" table.
	UserSkillLevelsTable = &schema.Table{
		Name:       tableLevels,
		Columns:    UserSkillLevelsColumns,
		PrimaryKey: []*schema.Column{UserSkillLevelsColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "userskilllevel_user_id_skill_area_exercise_type",
				Unique:  true,
				Columns: []*schema.Column{UserSkillLevelsColumns[1], UserSkillLevelsColumns[2], UserSkillLevelsColumns[3]},
			},
		},
	}
	// ContentItemsColumns holds the columns for the "content_items" table.
	ContentItemsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "skill_area", Type: field.TypeString},
		{Name: "exercise_type", Type: field.TypeString},
		{Name: "band_level", Type: field.TypeString},
		{Name: "schema_kind", Type: field.TypeString},
		{Name: "payload", Type: field.TypeJSON},
		{Name: "gen_provider", Type: field.TypeString, Default: ""},
		{Name: "gen_model", Type: field.TypeString, Default: ""},
		{Name: "gen_schema_version", Type: field.TypeInt, Default: 0},
		{Name: "gen_latency_ms", Type: field.TypeInt64, Default: 0},
		{Name: "times_used", Type: field.TypeInt64, Default: 0},
		{Name: "is_active", Type: field.TypeBool, Default: true},
		{Name: "created_at", Type: field.TypeTime},
	}
	// ContentItemsTable holds the schema information for the "content_items" table.
	ContentItemsTable = &schema.Table{
		Name:       tableContent,
		Columns:    ContentItemsColumns,
		PrimaryKey: []*schema.Column{ContentItemsColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "contentitem_skill_area_exercise_type_band_level_is_active",
				Unique:  false,
				Columns: []*schema.Column{ContentItemsColumns[1], ContentItemsColumns[2], ContentItemsColumns[3], ContentItemsColumns[11]},
			},
			{
				Name:    "contentitem_times_used_created_at",
				Unique:  false,
				Columns: []*schema.Column{ContentItemsColumns[10], ContentItemsColumns[12]},
			},
		},
	}
	// UsageRecordsColumns holds the columns for the "usage_records" table.
	UsageRecordsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "user_id", Type: field.TypeString},
		{Name: "used_at", Type: field.TypeTime},
		{Name: "score", Type: field.TypeInt, Nullable: true},
		{Name: "content_item_id", Type: field.TypeString},
	}
	// UsageRecordsTable holds the schema information for the "usage_records" table.
	UsageRecordsTable = &schema.Table{
		Name:       tableUsage,
		Columns:    UsageRecordsColumns,
		PrimaryKey: []*schema.Column{UsageRecordsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "usage_records_content_items_usages",
				Columns:    []*schema.Column{UsageRecordsColumns[4]},
				RefColumns: []*schema.Column{ContentItemsColumns[0]},
				OnDelete:   schema.NoAction,
			},
		},
		Indexes: []*schema.Index{
			{
				Name:    "usagerecord_user_id_content_item_id",
				Unique:  true,
				Columns: []*schema.Column{UsageRecordsColumns[1], UsageRecordsColumns[4]},
			},
			{
				Name:    "usagerecord_user_id_used_at",
				Unique:  false,
				Columns: []*schema.Column{UsageRecordsColumns[1], UsageRecordsColumns[2]},
			},
		},
	}
	// LlmRequestEventsColumns holds the columns for the "llm_request_events" table.
	LlmRequestEventsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "timestamp", Type: field.TypeTime},
		{Name: "provider", Type: field.TypeString},
		{Name: "model", Type: field.TypeString},
		{Name: "purpose", Type: field.TypeString},
		{Name: "input_tokens", Type: field.TypeInt, Default: 0},
		{Name: "output_tokens", Type: field.TypeInt, Default: 0},
		{Name: "latency_ms", Type: field.TypeInt64, Default: 0},
		{Name: "success", Type: field.TypeBool},
		{Name: "error_message", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "request_body", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "response_body", Type: field.TypeString, Size: 2147483647, Default: ""},
	}
	// LlmRequestEventsTable holds the schema information for the "llm_request_events" table.
	LlmRequestEventsTable = &schema.Table{
		Name:       tableLLMEvents,
		Columns:    LlmRequestEventsColumns,
		PrimaryKey: []*schema.Column{LlmRequestEventsColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "llmrequestevent_timestamp",
				Unique:  false,
				Columns: []*schema.Column{LlmRequestEventsColumns[1]},
			},
			{
				Name:    "llmrequestevent_purpose",
				Unique:  false,
				Columns: []*schema.Column{LlmRequestEventsColumns[4]},
			},
		},
	}
	// Tables holds all the tables in the schema.
	Tables = []*schema.Table{
		UserSkillLevelsTable,
		ContentItemsTable,
		UsageRecordsTable,
		LlmRequestEventsTable,
	}
)

func init() {
	UsageRecordsTable.ForeignKeys[0].RefTable = ContentItemsTable
}

// migrate creates or extends all tables. It is append-only: columns are
// added, never dropped.
func migrate(ctx context.Context, drv dialect.Driver) error {
	m, err := schema.NewMigrate(drv)
	if err != nil {
		return fmt.Errorf("new migrate: %w", err)
	}
	return m.Create(ctx, Tables...)
}
