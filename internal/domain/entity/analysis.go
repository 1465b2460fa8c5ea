package entity

// ViabilityStatus тег проходимости, который возвращает сервис анализа.
// Набор значений открыт: кроме VIABLE и PELIGRO сервис может прислать что угодно
// (например PRECAUCIÓN или INCIERTO), такие значения считаются предупреждением.
type ViabilityStatus string

const (
	StatusViable ViabilityStatus = "VIABLE"  // Местность проходима
	StatusDanger ViabilityStatus = "PELIGRO" // Опасно, проезд невозможен
)

// ViabilityTier уровень, по которому слой представления выбирает оформление.
type ViabilityTier int

const (
	TierCaution ViabilityTier = iota // Любой неизвестный статус
	TierViable
	TierDanger
)

// Tier сводит произвольный статус к одному из трёх уровней.
func (s ViabilityStatus) Tier() ViabilityTier {
	switch s {
	case StatusViable:
		return TierViable
	case StatusDanger:
		return TierDanger
	default:
		return TierCaution
	}
}

// String возвращает исходный тег без изменений.
func (s ViabilityStatus) String() string {
	return string(s)
}

// Composition состав поверхности в процентах. Сумма не обязана быть равной 100.
type Composition struct {
	Suelo float64 `json:"suelo"` // твёрдый грунт
	Arena float64 `json:"arena"` // песок
	Rocas float64 `json:"rocas"` // камни и препятствия
}

// Viability вердикт сервиса по снимку.
type Viability struct {
	Status      ViabilityStatus `json:"status"`
	Message     string          `json:"message"`
	Composition Composition     `json:"composition"`
}

// AnalysisResult ответ сервиса анализа. После получения не изменяется.
type AnalysisResult struct {
	Filename        string    `json:"filename,omitempty"`
	SegmentationMap string    `json:"segmentation_map"` // URI или data URI карты сегментации
	Viability       Viability `json:"viability"`
}
