package tts

// DefaultVoice is the voice used when none is configured.
const DefaultVoice = "Kore"

// Voices is the catalog of prebuilt narrator voices the provider accepts.
var Voices = []string{
	"Zephyr", "Puck", "Charon", "Kore", "Fenrir", "Aoede",
	"Leda", "Orus", "Autonoe", "Enceladus", "Iapetus", "Umbriel",
	"Algieba", "Despina", "Erinome", "Algenib", "Rasalgethi",
	"Laomedeia", "Achernar", "Alnilam", "Schedar", "Gacrux",
	"Pulcherrima", "Achird", "Zubenelgenubi", "Vindemiatrix",
	"Sadachbia", "Sadaltager", "Sulafat",
}

// ValidVoice reports whether name is in the voice catalog.
func ValidVoice(name string) bool {
	for _, v := range Voices {
		if v == name {
			return true
		}
	}
	return false
}
