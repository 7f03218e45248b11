package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type listResponse struct {
	Items []string `json:"items"`
}

func (s *Server) listDatabases(w http.ResponseWriter, r *http.Request) {
	items, err := s.catalog.Databases(r.Context())
	s.writeList(w, r, items, err)
}

func (s *Server) listSchemas(w http.ResponseWriter, r *http.Request) {
	items, err := s.catalog.Schemas(r.Context(), chi.URLParam(r, "database"))
	s.writeList(w, r, items, err)
}

func (s *Server) listTables(w http.ResponseWriter, r *http.Request) {
	items, err := s.catalog.Tables(r.Context(), chi.URLParam(r, "database"), chi.URLParam(r, "schema"))
	s.writeList(w, r, items, err)
}

func (s *Server) listColumns(w http.ResponseWriter, r *http.Request) {
	items, err := s.catalog.Columns(r.Context(),
		chi.URLParam(r, "database"), chi.URLParam(r, "schema"), chi.URLParam(r, "table"))
	s.writeList(w, r, items, err)
}

func (s *Server) writeList(w http.ResponseWriter, r *http.Request, items []string, err error) {
	if err != nil {
		s.log.WarnWith("metadata query failed", err, nil)
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []string{}
	}
	writeJSON(w, http.StatusOK, listResponse{Items: items})
}
