package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/prepdesk/examprep-service/internal/models"
	"github.com/prepdesk/examprep-service/internal/permissions"
	"github.com/prepdesk/examprep-service/internal/repositories"
	"github.com/prepdesk/examprep-service/internal/validator"
)

// Spreadsheet layout shared by import and export. Options, answers and tags
// are pipe-separated inside their cells.
var questionSheetHeader = []string{
	"question_text", "type", "difficulty", "options", "correct_answer", "subject_id", "tags",
}

const questionSheetName = "Questions"

type importExportService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	questions QuestionService
}

func NewImportExportService(repo repositories.Repository, logger *slog.Logger, v *validator.Validator, questions QuestionService) ImportExportService {
	return &importExportService{
		repo:      repo,
		logger:    logger,
		validator: v,
		questions: questions,
	}
}

func (s *importExportService) ImportQuestions(ctx context.Context, r io.Reader, actor *models.UserProfile) (*ImportResult, error) {
	if !permissions.HasPermission(actor, permissions.ResourceQuestions, permissions.OpCreate) {
		return nil, NewPermissionError(actorID(actor), "questions", "create", "role lacks create permission")
	}

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open spreadsheet: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) < 2 {
		return &ImportResult{}, nil
	}

	result := &ImportResult{}
	for i, row := range rows[1:] {
		rowNum := i + 2
		req, err := parseQuestionRow(row)
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", rowNum, err))
			continue
		}

		if _, err := s.questions.Create(ctx, req, actor); err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", rowNum, err))
			continue
		}
		result.Imported++
	}

	s.logger.Info("questions imported",
		"imported", result.Imported,
		"skipped", result.Skipped,
		"actor_id", actor.UserID)
	return result, nil
}

func parseQuestionRow(row []string) (*CreateQuestionRequest, error) {
	cell := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	text := cell(0)
	if text == "" {
		return nil, fmt.Errorf("question_text is empty")
	}

	req := &CreateQuestionRequest{Text: text}

	if v := cell(1); v != "" {
		qt := models.QuestionType(v)
		if qt != models.QuestionMCQ && qt != models.QuestionTheory {
			return nil, fmt.Errorf("unknown type %q", v)
		}
		req.Type = &qt
	}
	if v := cell(2); v != "" {
		d := models.DifficultyLevel(v)
		switch d {
		case models.DifficultyEasy, models.DifficultyMedium, models.DifficultyHard:
			req.Difficulty = &d
		default:
			return nil, fmt.Errorf("unknown difficulty %q", v)
		}
	}
	if v := cell(3); v != "" {
		req.Options = splitCell(v)
	}
	if v := cell(4); v != "" {
		if answers := splitCell(v); len(answers) > 1 {
			req.CorrectAnswer = models.FlexAnswer{Values: answers, IsList: true}
		} else {
			req.CorrectAnswer = models.FlexAnswer{Value: answers[0]}
		}
	}
	if v := cell(5); v != "" {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid subject_id %q", v)
		}
		subjectID := uint(id)
		req.SubjectID = &subjectID
	}
	if v := cell(6); v != "" {
		req.Tags = splitCell(v)
	}

	return req, nil
}

func splitCell(v string) []string {
	parts := strings.Split(v, "|")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (s *importExportService) ExportQuestions(ctx context.Context, params QuestionListParams, actor *models.UserProfile) ([]byte, error) {
	if !permissions.HasPermission(actor, permissions.ResourceQuestions, permissions.OpView) {
		return nil, NewPermissionError(actorID(actor), "questions", "view", "role lacks view permission")
	}

	filters := repositories.QuestionFilters{
		SubjectID:  params.SubjectID,
		Type:       params.Type,
		Difficulty: params.Difficulty,
		CreatedBy:  params.CreatedBy,
	}
	questions, _, err := s.repo.Question().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", questionSheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]interface{}, len(questionSheetHeader))
	for i, h := range questionSheetHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(questionSheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, q := range questions {
		row, err := questionToRow(q)
		if err != nil {
			return nil, fmt.Errorf("encode question %d: %w", q.ID, err)
		}
		axis := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(questionSheetName, axis, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}

	s.logger.Info("questions exported", "count", len(questions), "actor_id", actor.UserID)
	return buf.Bytes(), nil
}

func questionToRow(q *models.Question) ([]interface{}, error) {
	options, err := unmarshalStringList(q.Options)
	if err != nil {
		return nil, fmt.Errorf("decode options: %w", err)
	}
	tags, err := unmarshalStringList(q.Tags)
	if err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}

	answer := decodeAnswer(q)
	answerCell := answer.Value
	if answer.IsList {
		answerCell = strings.Join(answer.Values, "|")
	}

	subjectCell := ""
	if q.SubjectID != nil {
		subjectCell = strconv.FormatUint(uint64(*q.SubjectID), 10)
	}

	return []interface{}{
		q.QuestionText,
		string(q.Type),
		string(q.Difficulty),
		strings.Join(options, "|"),
		answerCell,
		subjectCell,
		strings.Join(tags, "|"),
	}, nil
}
