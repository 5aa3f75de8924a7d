package sandbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mironco/rigidcore/internal/config"
	"github.com/mironco/rigidcore/internal/material"
)

func writeJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, code int) {
	writeJSON(w, code, map[string]string{"error": message})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, ErrNotRunning), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// do runs fn on the simulation loop and writes an error response on failure.
func (h *handlers) do(w http.ResponseWriter, r *http.Request, fn func() error) bool {
	ctx, cancel := context.WithTimeout(r.Context(), commandTimeout)
	defer cancel()
	if err := h.sim.Do(ctx, fn); err != nil {
		code := statusOf(err)
		if code >= http.StatusInternalServerError {
			h.logger.Warn("command failed", zap.String("path", r.URL.Path), zap.Error(err))
		}
		writeError(w, err.Error(), code)
		return false
	}
	return true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func uidParam(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	uid, err := strconv.ParseUint(chi.URLParam(r, "uid"), 10, 64)
	if err != nil {
		writeError(w, "invalid uid", http.StatusBadRequest)
		return 0, false
	}
	return uid, true
}

// parseVec reads "x,y,z".
func parseVec(s string) (rl.Vector3, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return rl.Vector3{}, fmt.Errorf("want x,y,z, got %q", s)
	}
	var out [3]float32
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return rl.Vector3{}, fmt.Errorf("component %d of %q: %w", i, s, err)
		}
		out[i] = float32(f)
	}
	return rl.Vector3{X: out[0], Y: out[1], Z: out[2]}, nil
}

func vecParam(w http.ResponseWriter, r *http.Request, key string) (rl.Vector3, bool) {
	v, err := parseVec(r.URL.Query().Get(key))
	if err != nil {
		writeError(w, key+": "+err.Error(), http.StatusBadRequest)
		return rl.Vector3{}, false
	}
	return v, true
}

func (h *handlers) listBodies(w http.ResponseWriter, r *http.Request) {
	var out []BodyView
	if h.do(w, r, func() error { out = h.sim.Bodies(); return nil }) {
		writeJSON(w, http.StatusOK, out)
	}
}

func (h *handlers) getBody(w http.ResponseWriter, r *http.Request) {
	uid, ok := uidParam(w, r)
	if !ok {
		return
	}
	var out BodyView
	if h.do(w, r, func() (err error) { out, err = h.sim.Body(uid); return err }) {
		writeJSON(w, http.StatusOK, out)
	}
}

func (h *handlers) spawnBody(w http.ResponseWriter, r *http.Request) {
	var spec BodySpec
	if !decode(w, r, &spec) {
		return
	}
	var out BodyView
	ok := h.do(w, r, func() error {
		obj, err := h.sim.SpawnBody(spec)
		if err != nil {
			return err
		}
		out = h.sim.bodyView(obj)
		return nil
	})
	if ok {
		writeJSON(w, http.StatusCreated, out)
	}
}

func (h *handlers) removeBody(w http.ResponseWriter, r *http.Request) {
	uid, ok := uidParam(w, r)
	if !ok {
		return
	}
	if h.do(w, r, func() error { return h.sim.RemoveObject(uid) }) {
		w.WriteHeader(http.StatusNoContent)
	}
}

type vecRequest struct {
	Impulse config.Vec3 `json:"impulse"`
	Force   config.Vec3 `json:"force"`
	Torque  config.Vec3 `json:"torque"`
	Scale   config.Vec3 `json:"scale"`
}

func (h *handlers) applyImpulse(w http.ResponseWriter, r *http.Request) {
	uid, ok := uidParam(w, r)
	if !ok {
		return
	}
	var req vecRequest
	if !decode(w, r, &req) {
		return
	}
	ok = h.do(w, r, func() error {
		if req.Torque == (config.Vec3{}) || req.Impulse != (config.Vec3{}) {
			if err := h.sim.ApplyImpulse(uid, req.Impulse.Vector3()); err != nil {
				return err
			}
		}
		if req.Torque != (config.Vec3{}) {
			return h.sim.ApplyTorqueImpulse(uid, req.Torque.Vector3())
		}
		return nil
	})
	if ok {
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *handlers) applyForce(w http.ResponseWriter, r *http.Request) {
	uid, ok := uidParam(w, r)
	if !ok {
		return
	}
	var req vecRequest
	if !decode(w, r, &req) {
		return
	}
	if h.do(w, r, func() error { return h.sim.ApplyForce(uid, req.Force.Vector3(), req.Torque.Vector3()) }) {
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *handlers) resizeBody(w http.ResponseWriter, r *http.Request) {
	uid, ok := uidParam(w, r)
	if !ok {
		return
	}
	var req vecRequest
	if !decode(w, r, &req) {
		return
	}
	var out BodyView
	ok = h.do(w, r, func() error {
		if err := h.sim.ResizeObject(uid, req.Scale.Vector3()); err != nil {
			return err
		}
		var err error
		out, err = h.sim.Body(uid)
		return err
	})
	if ok {
		writeJSON(w, http.StatusOK, out)
	}
}

type raycastResponse struct {
	Hit bool     `json:"hit"`
	*HitView `json:",omitempty"`
}

func (h *handlers) raycast(w http.ResponseWriter, r *http.Request) {
	from, ok := vecParam(w, r, "from")
	if !ok {
		return
	}
	to, ok := vecParam(w, r, "to")
	if !ok {
		return
	}
	var out raycastResponse
	ok = h.do(w, r, func() error {
		if hit, found := h.sim.Raycast(from, to); found {
			out = raycastResponse{Hit: true, HitView: &hit}
		}
		return nil
	})
	if ok {
		writeJSON(w, http.StatusOK, out)
	}
}

func (h *handlers) queryRadius(w http.ResponseWriter, r *http.Request) {
	center, ok := vecParam(w, r, "center")
	if !ok {
		return
	}
	radius, err := strconv.ParseFloat(r.URL.Query().Get("radius"), 32)
	if err != nil || radius < 0 || math.IsNaN(radius) {
		writeError(w, "radius must be a non-negative number", http.StatusBadRequest)
		return
	}
	tag := r.URL.Query().Get("tag")
	var out []BodyView
	if h.do(w, r, func() error { out = h.sim.QueryRadius(center, float32(radius), tag); return nil }) {
		writeJSON(w, http.StatusOK, out)
	}
}

func (h *handlers) listConstraints(w http.ResponseWriter, r *http.Request) {
	var out []ConstraintView
	if h.do(w, r, func() error { out = h.sim.Constraints(); return nil }) {
		writeJSON(w, http.StatusOK, out)
	}
}

type templateRequest struct {
	Template string `json:"template"`
	A        uint64 `json:"a"`
	B        uint64 `json:"b,omitempty"`
}

func (h *handlers) applyTemplate(w http.ResponseWriter, r *http.Request) {
	var req templateRequest
	if !decode(w, r, &req) {
		return
	}
	var out ConstraintView
	ok := h.do(w, r, func() error {
		c, err := h.sim.ApplyTemplate(req.Template, req.A, req.B)
		if err != nil {
			return err
		}
		out = constraintView(c)
		return nil
	})
	if ok {
		writeJSON(w, http.StatusCreated, out)
	}
}

func (h *handlers) removeConstraint(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if h.do(w, r, func() error { return h.sim.RemoveConstraint(name) }) {
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *handlers) listTriggers(w http.ResponseWriter, r *http.Request) {
	var out []TriggerView
	if h.do(w, r, func() error { out = h.sim.Triggers(); return nil }) {
		writeJSON(w, http.StatusOK, out)
	}
}

func (h *handlers) createTrigger(w http.ResponseWriter, r *http.Request) {
	var spec TriggerSpec
	if !decode(w, r, &spec) {
		return
	}
	var out TriggerView
	ok := h.do(w, r, func() error {
		t, err := h.sim.CreateTrigger(spec)
		if err != nil {
			return err
		}
		out = triggerView(t)
		return nil
	})
	if ok {
		writeJSON(w, http.StatusCreated, out)
	}
}

func (h *handlers) removeTrigger(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if h.do(w, r, func() error { return h.sim.RemoveTrigger(name) }) {
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *handlers) listTemplates(w http.ResponseWriter, r *http.Request) {
	var out []string
	if h.do(w, r, func() error { out = h.sim.templates.Names(); return nil }) {
		writeJSON(w, http.StatusOK, out)
	}
}

func (h *handlers) listMaterials(w http.ResponseWriter, r *http.Request) {
	var out []material.Material
	if h.do(w, r, func() error { out = h.sim.materials.All(); return nil }) {
		writeJSON(w, http.StatusOK, out)
	}
}

func (h *handlers) getScene(w http.ResponseWriter, r *http.Request) {
	var out SceneFile
	if h.do(w, r, func() error { out = h.sim.SceneFile(); return nil }) {
		writeJSON(w, http.StatusOK, out)
	}
}

// loadScene adds the posted scene to the running one.
func (h *handlers) loadScene(w http.ResponseWriter, r *http.Request) {
	var sf SceneFile
	if !decode(w, r, &sf) {
		return
	}
	var added int
	ok := h.do(w, r, func() (err error) {
		added, err = h.sim.AddScene(sf)
		return err
	})
	if ok {
		writeJSON(w, http.StatusCreated, map[string]int{"objects": added})
	}
}
