package models

import "time"

// TopicType classifica um canal de telemetria pela forma de visualização
type TopicType string

const (
	TopicPlot       TopicType = "plot"
	TopicImage      TopicType = "image"
	TopicPointCloud TopicType = "pointcloud"
)

// Topic descreve um canal de telemetria disponível para seleção
type Topic struct {
	Name        string    `json:"name"`
	Type        TopicType `json:"type"`
	Description string    `json:"description"`
}

// Sample é uma leitura com timestamp de um canal de gráfico
type Sample struct {
	Topic     string             `json:"topic"`
	Timestamp time.Time          `json:"timestamp"`
	Values    map[string]float64 `json:"values"`
}

// Point é um ponto da nuvem sintética; não tem identidade entre quadros
type Point struct {
	X   float64 `json:"x"`
	Y   float64 `json:"y"`
	Z   float64 `json:"z"`
	Hue float64 `json:"hue"`
}

// ImageFrame é um quadro simulado de câmera IR
type ImageFrame struct {
	Camera    int       `json:"camera"`
	Topic     string    `json:"topic"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	DataURL   string    `json:"dataUrl"`
	Timestamp time.Time `json:"timestamp"`
}

// FieldSummary contém estatísticas de um campo de uma série
type FieldSummary struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stdDev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}
