package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/xuri/excelize/v2"

	"github.com/okian/teamsite/internal/domain/model"
	"github.com/okian/teamsite/pkg/logger"
)

const (
	exportSheet    = "Sponsors"
	xlsxType       = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	exportFilename = "sponsors.xlsx"
)

// ExportHandler builds spreadsheet exports for the admin panel.
type ExportHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewExportHandler creates a new export handler.
func NewExportHandler(deps Dependencies, log logger.Logger) *ExportHandler {
	return &ExportHandler{deps: deps, logger: log}
}

// HandleSponsors handles GET /api/admin/sponsors/export. The workbook has
// one row per sponsor in tier order with the tier each one classifies into.
func (h *ExportHandler) HandleSponsors(w http.ResponseWriter, r *http.Request) {
	const op = "api.admin_export_sponsors"
	groups, err := h.deps.SponsorsByTier(r.Context())
	if err != nil {
		fail(r.Context(), w, h.logger, Wrap(op, err))
		return
	}
	f, err := SponsorWorkbook(r.Context(), groups)
	if err != nil {
		fail(r.Context(), w, h.logger, WrapKind(op, ErrExport, err))
		return
	}
	defer func() { _ = f.Close() }()

	w.Header().Set("Content-Type", xlsxType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+exportFilename+`"`)
	w.WriteHeader(http.StatusOK)
	if err := f.Write(w); err != nil {
		h.logger.Warn(r.Context(), "export write failed", logger.Error(err))
	}
}

// SponsorWorkbook renders grouped sponsors into a workbook with a single
// sheet. The caller closes the returned file.
func SponsorWorkbook(ctx context.Context, groups []model.TierGroup) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	header := []any{"Tier", "Sponsor", "Amount", "Website"}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("write header: %w", err)
	}

	row := 2
	for _, g := range groups {
		tier := "Unclassified"
		if g.Tier != nil {
			tier = g.Tier.Name
		}
		for _, s := range g.Sponsors {
			if err := ctx.Err(); err != nil {
				_ = f.Close()
				return nil, err
			}
			amount, _ := s.Amount.Float64()
			cells := []any{tier, s.Name, amount, s.Website}
			cell, err := excelize.CoordinatesToCellName(1, row)
			if err != nil {
				_ = f.Close()
				return nil, err
			}
			if err := f.SetSheetRow(exportSheet, cell, &cells); err != nil {
				_ = f.Close()
				return nil, fmt.Errorf("write row %d: %w", row, err)
			}
			row++
		}
	}
	return f, nil
}
