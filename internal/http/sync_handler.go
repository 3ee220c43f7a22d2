package http

import (
	"net/http"
)

// handleTriggerSync runs a sync pass synchronously. Overlapping requests
// join the in-flight pass, so a mashed "Sync" button does no extra work.
func (s *Service) handleTriggerSync(w http.ResponseWriter, r *http.Request) {
	s.monitor.Probe(r.Context())

	if err := s.orch.FullSync(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}

	status, err := s.orch.Status(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, status)
}

// handleForeground is called by the UI when the application regains the
// foreground. The monitor decides whether this becomes a sync trigger.
func (s *Service) handleForeground(w http.ResponseWriter, r *http.Request) {
	s.monitor.Foreground()
	s.writeJSON(w, http.StatusAccepted, nil)
}

func (s *Service) handleSyncStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.orch.Status(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, status)
}
