package models

import (
	"strings"
	"time"
)

// PQRType is the legal category of a request.
type PQRType string

const (
	TypePetition  PQRType = "PETITION"
	TypeComplaint PQRType = "COMPLAINT"
	TypeClaim     PQRType = "CLAIM"
	TypeReport    PQRType = "REPORT"
)

// PQRPriority ranks urgency.
type PQRPriority string

const (
	PriorityLow      PQRPriority = "LOW"
	PriorityMedium   PQRPriority = "MEDIUM"
	PriorityHigh     PQRPriority = "HIGH"
	PriorityCritical PQRPriority = "CRITICAL"
)

// ReportChannel is how the request reached the office.
type ReportChannel string

const (
	ChannelInPerson   ReportChannel = "IN_PERSON"
	ChannelPhone      ReportChannel = "PHONE"
	ChannelEmail      ReportChannel = "EMAIL"
	ChannelApp        ReportChannel = "APP"
	ChannelWritten    ReportChannel = "WRITTEN"
	ChannelAutonomous ReportChannel = "AUTONOMOUS"
)

// PQRStatus is the workflow state of a request.
type PQRStatus string

const (
	StatusPending      PQRStatus = "PENDING"
	StatusAssigned     PQRStatus = "ASSIGNED"
	StatusIntervention PQRStatus = "INTERVENTION"
	StatusReview       PQRStatus = "REVIEW"
	StatusClosed       PQRStatus = "CLOSED"
)

var typeAliases = map[string]PQRType{
	"PETITION":  TypePetition,
	"PETICION":  TypePetition,
	"COMPLAINT": TypeComplaint,
	"QUEJA":     TypeComplaint,
	"CLAIM":     TypeClaim,
	"RECLAMO":   TypeClaim,
	"REPORT":    TypeReport,
	"REPORTE":   TypeReport,
}

var priorityAliases = map[string]PQRPriority{
	"LOW":      PriorityLow,
	"BAJA":     PriorityLow,
	"MEDIUM":   PriorityMedium,
	"MEDIA":    PriorityMedium,
	"HIGH":     PriorityHigh,
	"ALTA":     PriorityHigh,
	"CRITICAL": PriorityCritical,
	"CRITICA":  PriorityCritical,
}

var channelAliases = map[string]ReportChannel{
	"IN_PERSON":  ChannelInPerson,
	"PERSONAL":   ChannelInPerson,
	"PHONE":      ChannelPhone,
	"TELEFONICO": ChannelPhone,
	"EMAIL":      ChannelEmail,
	"APP":        ChannelApp,
	"WRITTEN":    ChannelWritten,
	"ESCRITO":    ChannelWritten,
	"AUTONOMOUS": ChannelAutonomous,
	"AUTONOMO":   ChannelAutonomous,
}

var statusAliases = map[string]PQRStatus{
	"PENDIENTE":    StatusPending,
	"ASIGNADA":     StatusAssigned,
	"EN_PROCESO":   StatusIntervention,
	"INTERVENCION": StatusIntervention,
	"REVISION":     StatusReview,
	"CERRADA":      StatusClosed,
	"PROCESADA":    StatusClosed,
}

var canonicalKey = strings.NewReplacer(
	"Á", "A", "É", "E", "Í", "I", "Ó", "O", "Ú", "U", "Ñ", "N",
	" ", "_", "-", "_",
)

func enumKey(raw string) string {
	return canonicalKey.Replace(strings.ToUpper(strings.TrimSpace(raw)))
}

// ParsePQRType accepts canonical and legacy Spanish spellings.
func ParsePQRType(raw string) (PQRType, bool) {
	t, ok := typeAliases[enumKey(raw)]
	return t, ok
}

// ParsePriority accepts canonical and legacy Spanish spellings.
func ParsePriority(raw string) (PQRPriority, bool) {
	p, ok := priorityAliases[enumKey(raw)]
	return p, ok
}

// ParseChannel accepts canonical and legacy Spanish spellings.
func ParseChannel(raw string) (ReportChannel, bool) {
	c, ok := channelAliases[enumKey(raw)]
	return c, ok
}

// NormalizeStatus maps legacy spellings onto canonical statuses. Unknown
// values are returned upper-cased so the permissive transition can store them.
func NormalizeStatus(raw string) PQRStatus {
	key := enumKey(raw)
	if s, ok := statusAliases[key]; ok {
		return s
	}
	return PQRStatus(key)
}

var conditionsByType = map[PQRType][]string{
	TypeReport: {
		"APAGADA", "ENCENDIDA_24H", "INTERMITENTE", "BAJA_INTENSIDAD", "PARPADEO",
		"FALLA_ELECTRICA", "FALLA_FOTOCONTROL", "LUMINARIA_DAÑADA", "LUMINARIA_CAIDA",
		"POSTE_INCLINADO", "POSTE_CAIDO", "VANDALISMO", "HURTO_LUMINARIA", "HURTO_CABLEADO",
		"OBSTRUCCION_ARBOL", "ACCIDENTE_TRANSITO", "LUMINARIA_INEXISTENTE",
		"MANTENIMIENTO_PREVENTIVO",
	},
	TypePetition: {"REPOTENCIACION", "MODERNIZACION", "REUBICACION", "REVISION_TECNICA", "APOYO_MUNICIPAL"},
	TypeClaim:    {"RECLAMO_IMPUESTO", "SERVICIO_AP"},
}

// PQRTypes lists every request type in form order.
var PQRTypes = []PQRType{TypeReport, TypePetition, TypeComplaint, TypeClaim}

// ConditionSet describes the condition field of one request type.
type ConditionSet struct {
	Type       PQRType  `json:"tipoPqr"`
	Conditions []string `json:"condiciones"`
	FreeText   bool     `json:"textoLibre"`
}

// ConditionsFor lists the accepted conditions of t. A nil result means any
// non-empty free text is accepted.
func ConditionsFor(t PQRType) []string {
	allowed, ok := conditionsByType[t]
	if !ok {
		return nil
	}
	out := make([]string, len(allowed))
	copy(out, allowed)
	return out
}

// ConditionCatalog returns the condition rules of the given types, or of every
// type when none are given.
func ConditionCatalog(types ...PQRType) []ConditionSet {
	if len(types) == 0 {
		types = PQRTypes
	}
	out := make([]ConditionSet, 0, len(types))
	for _, t := range types {
		conditions := ConditionsFor(t)
		set := ConditionSet{Type: t, Conditions: conditions, FreeText: conditions == nil}
		if set.Conditions == nil {
			set.Conditions = []string{}
		}
		out = append(out, set)
	}
	return out
}

// ValidCondition reports whether condition is acceptable for t.
func ValidCondition(t PQRType, condition string) bool {
	condition = strings.TrimSpace(condition)
	if condition == "" {
		return false
	}
	allowed, ok := conditionsByType[t]
	if !ok {
		return true
	}
	upper := strings.ToUpper(condition)
	for _, c := range allowed {
		if c == upper {
			return true
		}
	}
	return false
}

// PQR is a stored request row.
type PQR struct {
	ID              string        `db:"id" json:"id"`
	ClientID        string        `db:"client_id" json:"clienteId"`
	Type            PQRType       `db:"request_type" json:"tipoPqr"`
	Condition       string        `db:"condition" json:"condicion"`
	Priority        PQRPriority   `db:"priority" json:"prioridad"`
	Channel         ReportChannel `db:"report_channel" json:"medioReporte"`
	SubmittedAt     time.Time     `db:"submitted_at" json:"fechaPqr"`
	DeadlineDays    int           `db:"deadline_days" json:"plazoDias"`
	DueAt           time.Time     `db:"due_at" json:"fechaPlazo"`
	Status          PQRStatus     `db:"status" json:"estado"`
	Address         string        `db:"address" json:"direccionPqr"`
	Sector          string        `db:"sector" json:"sectorPqr"`
	Neighborhood    string        `db:"neighborhood" json:"barrio"`
	Latitude        *float64      `db:"latitude" json:"lat,omitempty"`
	Longitude       *float64      `db:"longitude" json:"lng,omitempty"`
	HasSerial       bool          `db:"has_serial" json:"hasSerie"`
	FixtureSerial   *string       `db:"fixture_serial" json:"serieLuminaria,omitempty"`
	Note            *string       `db:"note" json:"observacionPqr,omitempty"`
	CreatedByUserID string        `db:"created_by" json:"usuarioCreadorId"`
	CreatedAt       time.Time     `db:"created_at" json:"createdAt"`
}

// CreatorInfo is the public view of the user that registered a request.
type CreatorInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// PQRDetail is the read model returned to the dashboard.
type PQRDetail struct {
	PQR
	Client     *Client        `json:"cliente,omitempty"`
	ClientName string         `json:"nombreCliente"`
	Fixture    *Fixture       `json:"luminaria,omitempty"`
	Creator    *CreatorInfo   `json:"usuarioCreador,omitempty"`
	History    []HistoryEntry `json:"historial"`
}

// PQRFilter narrows list queries. CreatedBy is forced for non-admin actors.
type PQRFilter struct {
	CreatedBy string
	Status    PQRStatus
	Type      PQRType
	Search    string
}
