package api

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"mission_go/internal/pointcloud"
)

// GetPointCloud gera e projeta um quadro da câmera. Canvas sem área
// responde 204.
func (h *Handler) GetPointCloud(w http.ResponseWriter, r *http.Request) {
	frame, ok := h.pointCloudFrame(w, r)
	if !ok {
		return
	}
	h.respondWithJSON(w, http.StatusOK, frame)
}

// GetPointCloudPNG renderiza o quadro projetado como PNG
func (h *Handler) GetPointCloudPNG(w http.ResponseWriter, r *http.Request) {
	frame, ok := h.pointCloudFrame(w, r)
	if !ok {
		return
	}

	img, err := pointcloud.RenderPNG(frame)
	if err != nil {
		log.Errorf("Erro ao renderizar nuvem da câmera %d: %v", frame.Camera, err)
		h.respondWithError(w, http.StatusInternalServerError, "Erro ao renderizar nuvem de pontos")
		return
	}

	h.respondWithPNG(w, img)
}

func (h *Handler) pointCloudFrame(w http.ResponseWriter, r *http.Request) (*pointcloud.Frame, bool) {
	camera, err := h.camera(r)
	if err != nil {
		h.respondWithErr(w, err)
		return nil, false
	}

	frame := h.telemetry.PointCloudFrame(camera, h.clock.Now())
	if frame == nil {
		w.WriteHeader(http.StatusNoContent)
		return nil, false
	}
	return frame, true
}

// RotatePointCloud aplica um arrasto: {"deltaX": 12, "buttons": 1}
func (h *Handler) RotatePointCloud(w http.ResponseWriter, r *http.Request) {
	camera, err := h.camera(r)
	if err != nil {
		h.respondWithErr(w, err)
		return
	}

	var body struct {
		DeltaX  *float64 `json:"deltaX"`
		Buttons *int     `json:"buttons"`
	}
	if !h.decodeJSON(w, r, &body) {
		return
	}
	if body.DeltaX == nil || body.Buttons == nil {
		h.respondWithErr(w, errMissingDrag)
		return
	}

	angle, err := h.telemetry.Rotator().Drag(camera, *body.DeltaX, *body.Buttons)
	if err != nil {
		h.respondWithErr(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"camera":   camera,
		"rotation": angle,
	})
}

// GetIRFrame retorna um quadro IR com a imagem em data URL
func (h *Handler) GetIRFrame(w http.ResponseWriter, r *http.Request) {
	camera, err := h.camera(r)
	if err != nil {
		h.respondWithErr(w, err)
		return
	}

	frame, err := h.telemetry.ImageFrame(camera, h.clock.Now())
	if err != nil {
		h.respondWithErr(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, frame)
}

// GetIRPNG retorna um quadro IR como PNG
func (h *Handler) GetIRPNG(w http.ResponseWriter, r *http.Request) {
	camera, err := h.camera(r)
	if err != nil {
		h.respondWithErr(w, err)
		return
	}

	img, err := h.telemetry.ImagePNG(camera)
	if err != nil {
		h.respondWithErr(w, err)
		return
	}

	h.respondWithPNG(w, img)
}

// GetModel serve o modelo 3D do robô
func (h *Handler) GetModel(w http.ResponseWriter, r *http.Request) {
	info, err := os.Stat(h.modelPath)
	if err != nil || info.IsDir() {
		h.respondWithError(w, http.StatusNotFound, "Modelo 3D não encontrado")
		return
	}

	contentType := "model/gltf+json"
	if strings.EqualFold(filepath.Ext(h.modelPath), ".glb") {
		contentType = "model/gltf-binary"
	}
	w.Header().Set("Content-Type", contentType)
	http.ServeFile(w, r, h.modelPath)
}

// camera lê o índice da rota e confere se existe
func (h *Handler) camera(r *http.Request) (int, error) {
	raw := mux.Vars(r)["camera"]
	camera, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", pointcloud.ErrUnknownCamera, raw)
	}
	if camera < 0 || camera >= h.telemetry.Cameras() {
		return 0, fmt.Errorf("%w: %d", pointcloud.ErrUnknownCamera, camera)
	}
	return camera, nil
}

