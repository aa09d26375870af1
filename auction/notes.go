package auction

var expertNotes = []string{
	"Requiere inspección detallada. Posible problema estructural.",
	"Buena oportunidad pero verificar títulos y gravámenes.",
	"Propiedad sólida con potencial de revalorización moderada.",
	"Excelente inversión. Ubicación premium y condición favorable.",
	"Oportunidad excepcional. Máxima prioridad para inversión.",
}

// Note returns the expert note for an opportunity score. Out of range scores
// get the neutral middle note.
func Note(score int) string {
	if score < 1 || score > len(expertNotes) {
		return expertNotes[2]
	}
	return expertNotes[score-1]
}
