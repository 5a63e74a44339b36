/*
seed.go - Demo catalog loader

PURPOSE:
  Populates a writable catalog with the demo programs and a handful of
  demo students, so the plan and export endpoints work on a fresh database.

HOW SEEDING WORKS:
 1. Parse factory.DemoCatalogJSON through the program factory
 2. Upsert every program into the writable catalog
 3. Upsert the demo students, each enrolled in one demo program

USAGE VIA API:

	POST /api/catalog/seed

NOTE:
  Seeding upserts, it never deletes. Running it twice is harmless.

SEE ALSO:
  - factory/presets.go: DemoCatalogJSON
*/
package api

import (
	"context"
	"net/http"

	"github.com/pkg/errors"
	"github.com/warp/tuition-engine/factory"
	"github.com/warp/tuition-engine/tuition"
)

// DemoStudents are registered alongside the demo catalog.
var DemoStudents = []tuition.Student{
	{Code: "A-2024-0001", Name: "Ana Torres", Email: "ana.torres@example.edu", ProgramID: "ing-sistemas"},
	{Code: "A-2024-0002", Name: "Bruno Díaz", Email: "bruno.diaz@example.edu", ProgramID: "administracion"},
	{Code: "A-2024-0003", Name: "Carla Quispe", Email: "carla.quispe@example.edu", ProgramID: "derecho-virtual"},
	{Code: "A-2024-0004", Name: "Diego Ramos", ProgramID: "diplomado-datos"},
}

// SeedResult reports what a seed run wrote.
type SeedResult struct {
	Programs int `json:"programs"`
	Students int `json:"students"`
}

// LoadDemoCatalog upserts the demo programs into writer and, when students
// is non-nil, the demo students.
func LoadDemoCatalog(ctx context.Context, f *factory.ProgramFactory, writer tuition.ProgramWriter, students tuition.StudentStore) (SeedResult, error) {
	var res SeedResult

	programs, err := f.ParsePrograms([]byte(factory.DemoCatalogJSON))
	if err != nil {
		return res, errors.Wrap(err, "parsing demo catalog")
	}
	for _, p := range programs {
		if err := writer.SaveProgram(ctx, p); err != nil {
			return res, errors.Wrapf(err, "saving program %s", p.ID)
		}
		res.Programs++
	}

	if students == nil {
		return res, nil
	}
	for _, s := range DemoStudents {
		if err := students.SaveStudent(ctx, s); err != nil {
			return res, errors.Wrapf(err, "saving student %s", s.Code)
		}
		res.Students++
	}
	return res, nil
}

// SeedCatalog loads the demo catalog.
// POST /api/catalog/seed
func (h *Handler) SeedCatalog(w http.ResponseWriter, r *http.Request) {
	writer, ok := h.Catalog.(tuition.ProgramWriter)
	if !ok {
		h.writeDomainError(w, r, "Catalog is read-only", tuition.ErrReadOnlyCatalog)
		return
	}

	res, err := LoadDemoCatalog(r.Context(), h.factory, writer, h.Students)
	if err != nil {
		h.writeDomainError(w, r, "Failed to seed catalog", err)
		return
	}

	h.Logger.InfoContext(r.Context(), "demo catalog loaded", "programs", res.Programs, "students", res.Students)
	writeJSON(w, http.StatusOK, res)
}
