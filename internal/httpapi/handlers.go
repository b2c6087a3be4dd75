package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

type healthResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, healthResponse{Status: "ok"})
}

type engineStateResponse struct {
	Playing  bool    `json:"playing"`
	PlayPos  int64   `json:"play_pos"`
	MeterRMS float64 `json:"meter_rms"`
	OutSR    int     `json:"out_sample_rate"`
}

// handleEngineState reports the realtime engine's atomics, read the same
// way the UI thread would (relaxed loads, no locking — spec.md §5 "Reads
// realtime atomics via relaxed loads to drive display").
func (s *Server) handleEngineState(c echo.Context) error {
	if s.eng == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "no engine attached")
	}
	st := s.eng.State()
	return c.JSON(http.StatusOK, engineStateResponse{
		Playing:  st.Playing(),
		PlayPos:  st.PlayPos(),
		MeterRMS: st.MeterRMS(),
		OutSR:    st.OutSampleRate(),
	})
}

type listItemResponse struct {
	ID          int64   `json:"id"`
	Path        string  `json:"path"`
	DisplayName string  `json:"display_name"`
	DurationS   float64 `json:"duration_s,omitempty"`
	PeakDB      float64 `json:"peak_db,omitempty"`
}

type listStateResponse struct {
	Count int                `json:"count"`
	Items []listItemResponse `json:"items"`
}

func (s *Server) handleListState(c echo.Context) error {
	if s.list == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "no list model attached")
	}
	items := s.list.Snapshot()
	out := make([]listItemResponse, 0, len(items))
	for _, item := range items {
		resp := listItemResponse{ID: item.ID, Path: item.Path, DisplayName: item.DisplayName}
		if item.Meta != nil {
			resp.DurationS = item.Meta.DurationS
			resp.PeakDB = item.Meta.PeakDB
		}
		out = append(out, resp)
	}
	return c.JSON(http.StatusOK, listStateResponse{Count: len(out), Items: out})
}

type transcriptEventResponse struct {
	Component string `json:"component"`
	Message   string `json:"message"`
	Error     string `json:"error,omitempty"`
}

func (s *Server) handleTranscript(c echo.Context) error {
	if s.coord == nil || s.coord.Transcript == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "no transcript attached")
	}
	events := s.coord.Transcript.Snapshot()
	out := make([]transcriptEventResponse, 0, len(events))
	for _, e := range events {
		resp := transcriptEventResponse{Component: e.Component, Message: e.Message}
		if e.Err != nil {
			resp.Error = e.Err.Error()
		}
		out = append(out, resp)
	}
	return c.JSON(http.StatusOK, out)
}

// handleEventStream streams engine-state snapshots over Server-Sent Events
// at a fixed tick rate for a lightweight external dashboard, stopping when
// the client disconnects.
func (s *Server) handleEventStream(c echo.Context) error {
	if s.eng == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "no engine attached")
	}

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set("Cache-Control", "no-cache")
	resp.Header().Set("Connection", "keep-alive")
	resp.WriteHeader(http.StatusOK)

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			st := s.eng.State()
			payload, err := json.Marshal(engineStateResponse{
				Playing:  st.Playing(),
				PlayPos:  st.PlayPos(),
				MeterRMS: st.MeterRMS(),
				OutSR:    st.OutSampleRate(),
			})
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(resp, "data: %s\n\n", payload); err != nil {
				return nil
			}
			resp.Flush()
		}
	}
}

