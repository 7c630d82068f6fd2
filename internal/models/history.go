package models

import "time"

// Stage labels recorded in the history ledger.
const (
	StageRegistered    = "Registro"
	StageAssignment    = "Asignación"
	StageIntervention  = "Intervención"
	StageReview        = "Revisión"
	StageClosure       = "Cierre"
	StageStatusChanged = "Cambio de estado"
)

var stageLabels = map[PQRStatus]string{
	StatusAssigned:     StageAssignment,
	StatusIntervention: StageIntervention,
	StatusReview:       StageReview,
	StatusClosed:       StageClosure,
}

// StageFor maps a target status to its history label. It is total.
func StageFor(status PQRStatus) string {
	if label, ok := stageLabels[status]; ok {
		return label
	}
	return StageStatusChanged
}

// HistoryEntry is one append-only process event of a PQR.
type HistoryEntry struct {
	ID         string    `db:"id" json:"id"`
	PQRID      string    `db:"pqr_id" json:"pqrId"`
	Stage      string    `db:"stage" json:"proceso"`
	UserID     string    `db:"user_id" json:"usuarioId"`
	Comment    *string   `db:"comment" json:"comentario"`
	OccurredAt time.Time `db:"occurred_at" json:"fecha"`
}
