// Package migrate declares the engine tables and creates them on a database.
package migrate

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

var (
	// WordsColumns holds the columns for the "words" table.
	WordsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64, Increment: true},
		{Name: "target_text", Type: field.TypeString},
		{Name: "prompt_text", Type: field.TypeString},
		{Name: "reading", Type: field.TypeString, Default: ""},
		{Name: "alternates", Type: field.TypeJSON, Nullable: true},
		{Name: "section", Type: field.TypeInt, Default: 0},
		{Name: "created_at", Type: field.TypeTime},
	}
	// WordsTable holds the schema information for the "words" table.
	WordsTable = &schema.Table{
		Name:       "words",
		Columns:    WordsColumns,
		PrimaryKey: []*schema.Column{WordsColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "word_target_text_prompt_text",
				Unique:  true,
				Columns: []*schema.Column{WordsColumns[1], WordsColumns[2]},
			},
			{
				Name:    "word_section_id",
				Unique:  false,
				Columns: []*schema.Column{WordsColumns[5], WordsColumns[0]},
			},
		},
	}
	// LearnersColumns holds the columns for the "learners" table.
	LearnersColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64, Increment: true},
		{Name: "name", Type: field.TypeString, Unique: true},
		{Name: "role", Type: field.TypeString, Default: "learner"},
		{Name: "guardian_id", Type: field.TypeInt64, Nullable: true},
		{Name: "created_at", Type: field.TypeTime},
	}
	// LearnersTable holds the schema information for the "learners" table.
	LearnersTable = &schema.Table{
		Name:       "learners",
		Columns:    LearnersColumns,
		PrimaryKey: []*schema.Column{LearnersColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "learners_learners_dependents",
				Columns:    []*schema.Column{LearnersColumns[3]},
				RefColumns: []*schema.Column{LearnersColumns[0]},
				OnDelete:   schema.SetNull,
			},
		},
	}
	// LearningRecordsColumns holds the columns for the "learning_records" table.
	LearningRecordsColumns = []*schema.Column{
		{Name: "learner_id", Type: field.TypeInt64},
		{Name: "word_id", Type: field.TypeInt64},
		{Name: "first_studied_at", Type: field.TypeTime},
		{Name: "last_studied_at", Type: field.TypeTime},
		{Name: "last_success_at", Type: field.TypeTime, Nullable: true},
		{Name: "total_attempts", Type: field.TypeInt, Default: 0},
		{Name: "correct_count", Type: field.TypeInt, Default: 0},
		{Name: "hint_count", Type: field.TypeInt, Default: 0},
	}
	// LearningRecordsTable holds the schema information for the "learning_records" table.
	LearningRecordsTable = &schema.Table{
		Name:       "learning_records",
		Columns:    LearningRecordsColumns,
		PrimaryKey: []*schema.Column{LearningRecordsColumns[0], LearningRecordsColumns[1]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "learning_records_learners_records",
				Columns:    []*schema.Column{LearningRecordsColumns[0]},
				RefColumns: []*schema.Column{LearnersColumns[0]},
				OnDelete:   schema.Cascade,
			},
			{
				Symbol:     "learning_records_words_records",
				Columns:    []*schema.Column{LearningRecordsColumns[1]},
				RefColumns: []*schema.Column{WordsColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
	}
	// AnswersColumns holds the columns for the "answers" table.
	AnswersColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64, Increment: true},
		{Name: "learner_id", Type: field.TypeInt64},
		{Name: "word_id", Type: field.TypeInt64},
		{Name: "submission_id", Type: field.TypeString},
		{Name: "pool", Type: field.TypeString},
		{Name: "outcome", Type: field.TypeString},
		{Name: "day", Type: field.TypeString, Size: 10},
		{Name: "answered_at", Type: field.TypeTime},
	}
	// AnswersTable holds the schema information for the "answers" table.
	AnswersTable = &schema.Table{
		Name:       "answers",
		Columns:    AnswersColumns,
		PrimaryKey: []*schema.Column{AnswersColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "answers_learners_answers",
				Columns:    []*schema.Column{AnswersColumns[1]},
				RefColumns: []*schema.Column{LearnersColumns[0]},
				OnDelete:   schema.Cascade,
			},
			{
				Symbol:     "answers_words_answers",
				Columns:    []*schema.Column{AnswersColumns[2]},
				RefColumns: []*schema.Column{WordsColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{
				Name:    "answer_learner_id_submission_id",
				Unique:  true,
				Columns: []*schema.Column{AnswersColumns[1], AnswersColumns[3]},
			},
			{
				Name:    "answer_learner_id_day",
				Unique:  false,
				Columns: []*schema.Column{AnswersColumns[1], AnswersColumns[6]},
			},
		},
	}
	// DailyStatsColumns holds the columns for the "daily_stats" table.
	DailyStatsColumns = []*schema.Column{
		{Name: "learner_id", Type: field.TypeInt64},
		{Name: "day", Type: field.TypeString, Size: 10},
		{Name: "pool", Type: field.TypeString},
		{Name: "correct", Type: field.TypeInt, Default: 0},
		{Name: "hint", Type: field.TypeInt, Default: 0},
		{Name: "incorrect", Type: field.TypeInt, Default: 0},
	}
	// DailyStatsTable holds the schema information for the "daily_stats" table.
	DailyStatsTable = &schema.Table{
		Name:       "daily_stats",
		Columns:    DailyStatsColumns,
		PrimaryKey: []*schema.Column{DailyStatsColumns[0], DailyStatsColumns[1], DailyStatsColumns[2]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "daily_stats_learners_daily_stats",
				Columns:    []*schema.Column{DailyStatsColumns[0]},
				RefColumns: []*schema.Column{LearnersColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
	}
	// Tables holds all the tables in the schema, parents first.
	Tables = []*schema.Table{
		WordsTable,
		LearnersTable,
		LearningRecordsTable,
		AnswersTable,
		DailyStatsTable,
	}
)

func init() {
	LearnersTable.ForeignKeys[0].RefTable = LearnersTable
	LearningRecordsTable.ForeignKeys[0].RefTable = LearnersTable
	LearningRecordsTable.ForeignKeys[1].RefTable = WordsTable
	AnswersTable.ForeignKeys[0].RefTable = LearnersTable
	AnswersTable.ForeignKeys[1].RefTable = WordsTable
	DailyStatsTable.ForeignKeys[0].RefTable = LearnersTable
}

// Create runs the schema migration against the given driver.
func Create(ctx context.Context, drv dialect.Driver, opts ...schema.MigrateOption) error {
	migrate, err := schema.NewMigrate(drv, opts...)
	if err != nil {
		return fmt.Errorf("ent/migrate: %w", err)
	}
	return migrate.Create(ctx, Tables...)
}
