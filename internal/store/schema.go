package store

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

var (
	// UsersColumns holds the columns for the "users" table.
	UsersColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "username", Type: field.TypeString, Unique: true},
		{Name: "xp", Type: field.TypeInt, Default: 0},
		{Name: "level", Type: field.TypeInt, Default: 1},
		{Name: "streak", Type: field.TypeInt, Default: 0},
		{Name: "last_active_at", Type: field.TypeTime, Nullable: true},
		{Name: "completed_lessons", Type: field.TypeJSON},
		{Name: "achievements", Type: field.TypeJSON},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	UsersTable = &schema.Table{
		Name:       "users",
		Columns:    UsersColumns,
		PrimaryKey: []*schema.Column{UsersColumns[0]},
		Indexes: []*schema.Index{
			{Name: "user_xp", Unique: false, Columns: []*schema.Column{UsersColumns[2]}},
		},
	}

	// LessonProgressColumns holds the columns for the "lesson_progress" table.
	LessonProgressColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "user_id", Type: field.TypeString},
		{Name: "track_id", Type: field.TypeString},
		{Name: "lesson_id", Type: field.TypeString},
		{Name: "best_score", Type: field.TypeInt, Default: 0},
		{Name: "attempts", Type: field.TypeInt, Default: 0},
		{Name: "completed", Type: field.TypeBool, Default: false},
		{Name: "completed_at", Type: field.TypeTime, Nullable: true},
		{Name: "time_spent_secs", Type: field.TypeInt, Default: 0},
		{Name: "answers", Type: field.TypeJSON, Nullable: true},
		{Name: "last_attempt_at", Type: field.TypeTime},
	}
	LessonProgressTable = &schema.Table{
		Name:       "lesson_progress",
		Columns:    LessonProgressColumns,
		PrimaryKey: []*schema.Column{LessonProgressColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "lessonprogress_user_id_track_id_lesson_id",
				Unique:  true,
				Columns: []*schema.Column{LessonProgressColumns[1], LessonProgressColumns[2], LessonProgressColumns[3]},
			},
		},
	}

	// SimulationHistoryColumns holds the columns for the "simulation_history" table.
	SimulationHistoryColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "user_id", Type: field.TypeString},
		{Name: "scenario_id", Type: field.TypeString},
		{Name: "conversation", Type: field.TypeJSON},
		{Name: "score", Type: field.TypeInt, Default: 0},
		{Name: "feedback", Type: field.TypeJSON, Nullable: true},
		{Name: "duration_secs", Type: field.TypeInt, Default: 0},
		{Name: "ended", Type: field.TypeBool, Default: false},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "ended_at", Type: field.TypeTime, Nullable: true},
	}
	SimulationHistoryTable = &schema.Table{
		Name:       "simulation_history",
		Columns:    SimulationHistoryColumns,
		PrimaryKey: []*schema.Column{SimulationHistoryColumns[0]},
		Indexes: []*schema.Index{
			{Name: "simulationhistory_user_id", Columns: []*schema.Column{SimulationHistoryColumns[1]}},
		},
	}

	// LlmRequestEventsColumns holds the columns for the "llm_request_events" table.
	LlmRequestEventsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "timestamp", Type: field.TypeTime},
		{Name: "provider", Type: field.TypeString},
		{Name: "model", Type: field.TypeString},
		{Name: "purpose", Type: field.TypeString},
		{Name: "input_tokens", Type: field.TypeInt, Default: 0},
		{Name: "output_tokens", Type: field.TypeInt, Default: 0},
		{Name: "latency_ms", Type: field.TypeInt64, Default: 0},
		{Name: "success", Type: field.TypeBool},
		{Name: "error_message", Type: field.TypeString, Default: ""},
		{Name: "request_body", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "response_body", Type: field.TypeString, Size: 2147483647, Default: ""},
	}
	LlmRequestEventsTable = &schema.Table{
		Name:       "llm_request_events",
		Columns:    LlmRequestEventsColumns,
		PrimaryKey: []*schema.Column{LlmRequestEventsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "llmrequestevent_timestamp", Columns: []*schema.Column{LlmRequestEventsColumns[2]}},
			{Name: "llmrequestevent_purpose", Columns: []*schema.Column{LlmRequestEventsColumns[5]}},
		},
	}

	// XpEventsColumns holds the columns for the "xp_events" table.
	XpEventsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "timestamp", Type: field.TypeTime},
		{Name: "user_id", Type: field.TypeString},
		{Name: "source", Type: field.TypeString},
		{Name: "ref", Type: field.TypeString, Default: ""},
		{Name: "amount", Type: field.TypeInt},
		{Name: "total_xp", Type: field.TypeInt},
		{Name: "level", Type: field.TypeInt},
	}
	XpEventsTable = &schema.Table{
		Name:       "xp_events",
		Columns:    XpEventsColumns,
		PrimaryKey: []*schema.Column{XpEventsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "xpevent_user_id", Columns: []*schema.Column{XpEventsColumns[3]}},
		},
	}

	// Tables holds all the tables in the schema.
	Tables = []*schema.Table{
		UsersTable,
		LessonProgressTable,
		SimulationHistoryTable,
		LlmRequestEventsTable,
		XpEventsTable,
	}
)
