// Package report exports the user directory and relationship graph as an
// xlsx workbook.
package report

import (
	"context"
	"io"
	"time"

	"github.com/mroshb/moodgram/internal/models"
	"github.com/mroshb/moodgram/pkg/errors"
	"github.com/xuri/excelize/v2"
)

const (
	SheetUsers         = "Users"
	SheetRelationships = "Relationships"
)

// Source is what the export reads. Every store backend satisfies it.
type Source interface {
	AllUsers(ctx context.Context) ([]models.User, error)
	AllRelationships(ctx context.Context) ([]models.Relationship, error)
}

var userHeader = []interface{}{
	"ID", "Username", "Display name", "Public",
	"Following", "Followers", "Requests sent", "Requests received",
	"Ignored", "Ignored by", "Blocking", "Blocked by", "Created at",
}

var relationshipHeader = []interface{}{
	"Source ID", "Source", "Target ID", "Target", "Status", "Blocked by target", "Updated at",
}

// Build reads everything from src into a new workbook. Edges with status
// none carry only a block flag and are kept so the sheet mirrors storage.
func Build(ctx context.Context, src Source) (*excelize.File, error) {
	users, err := src.AllUsers(ctx)
	if err != nil {
		return nil, err
	}
	edges, err := src.AllRelationships(ctx)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetUsers); err != nil {
		f.Close()
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to name users sheet")
	}
	if _, err := f.NewSheet(SheetRelationships); err != nil {
		f.Close()
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to add relationships sheet")
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to create header style")
	}

	usernames := make(map[string]string, len(users))
	userRows := make([][]interface{}, 0, len(users))
	for _, u := range users {
		usernames[u.ID] = u.Username
		userRows = append(userRows, []interface{}{
			u.ID, u.Username, u.DisplayName, u.IsAccountPublic,
			u.FollowCount, u.FollowByCount, u.RequestCount, u.RequestByCount,
			u.IgnoreCount, u.IgnoreByCount, u.BlockCount, u.BlockByCount,
			u.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	edgeRows := make([][]interface{}, 0, len(edges))
	for _, e := range edges {
		edgeRows = append(edgeRows, []interface{}{
			e.SourceID, usernames[e.SourceID], e.TargetID, usernames[e.TargetID],
			string(e.Status), e.IsBlocked, e.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}

	if err := writeSheet(f, SheetUsers, userHeader, userRows, bold); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeSheet(f, SheetRelationships, relationshipHeader, edgeRows, bold); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

// Write builds the workbook and streams it to w.
func Write(ctx context.Context, src Source, w io.Writer) error {
	f, err := Build(ctx, src)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to write workbook")
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, header []interface{}, rows [][]interface{}, headerStyle int) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to write header")
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to style header")
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to style header")
	}

	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to address row")
		}
		if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to write row")
		}
	}
	return nil
}
