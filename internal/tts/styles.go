package tts

// DefaultStyle is the preset used when none is configured.
const DefaultStyle = "classic"

// ConsistencyReminder prefixes every batch after the first. The provider has
// no cross-call memory, so without it narration pacing drifts between calls.
const ConsistencyReminder = `[Continue with the same measured pace, warm tone, and natural breathing as before. Do not speed up. Maintain consistent tempo.]

`

// narratorStyles are the named narration presets. Each is a full performance
// prompt sent ahead of the first batch of a chapter.
var narratorStyles = map[string]string{
	"classic": `# AUDIO PROFILE: The Classic Narrator
## "The Storyteller"

## The Scene
A warm, wood-paneled recording studio with soft ambient lighting.
The narrator sits in a comfortable chair, speaking as if sharing
a beloved story with a close friend by the fireside.

### DIRECTOR'S NOTES
* **Pace:** Measured and unhurried. Allow the story to breathe.
* **Breathing:** Natural pauses at paragraph breaks. Audible but soft inhales.
* **Dynamics:** Gentle rises and falls. Never rushed, never monotone.
* **Articulation:** Clear but warm. Not clinical or robotic.
* **Consistency:** Maintain the same tempo throughout. Do not accelerate.

### PERFORMANCE NOTES
Read as if you have all the time in the world. Let each sentence
land before moving to the next. The listener is not in a hurry.`,

	"dramatic": `# AUDIO PROFILE: The Dramatic Narrator
## "The Theater Performer"

## The Scene
A darkened stage with a single spotlight. The narrator commands
attention, drawing listeners into every twist and emotional beat
of the story with theatrical gravitas.

### DIRECTOR'S NOTES
* **Pace:** Varied and purposeful. Slow for tension, quicker for action.
* **Breathing:** Dramatic pauses for effect. Let silence build anticipation.
* **Dynamics:** Bold contrasts. Whispers to crescendos as the story demands.
* **Articulation:** Precise and expressive. Every word has weight.
* **Emotion:** Fully inhabit the emotional landscape of each scene.

### PERFORMANCE NOTES
This is a performance, not just a reading. Let the drama unfold
through your voice. Engage the listener's emotions at every turn.`,

	"calm": `# AUDIO PROFILE: The Calm Narrator
## "The Meditation Guide"

## The Scene
A peaceful sanctuary bathed in soft natural light. The narrator
speaks with serene composure, creating a soothing listening
experience perfect for relaxation or bedtime.

### DIRECTOR'S NOTES
* **Pace:** Slow and steady. Never hurried. Embrace silence.
* **Breathing:** Deep, visible breaths. Calming and rhythmic.
* **Dynamics:** Minimal variation. Maintain a gentle, even tone.
* **Articulation:** Soft and flowing. Words melt into one another.
* **Energy:** Low and peaceful. This is a lullaby, not a lecture.

### PERFORMANCE NOTES
Imagine the listener is drifting off to sleep. Your voice should
comfort and soothe. Never jar or startle. Pure tranquility.`,

	"energetic": `# AUDIO PROFILE: The Energetic Narrator
## "The Enthusiast"

## The Scene
A bright, modern studio with an engaged, attentive audience.
The narrator radiates enthusiasm and keeps listeners hooked
with infectious energy and dynamic delivery.

### DIRECTOR'S NOTES
* **Pace:** Brisk but clear. Keep momentum without sacrificing clarity.
* **Breathing:** Quick, energetic breaths. Ready for the next beat.
* **Dynamics:** Lively variation. Punchy emphasis on key moments.
* **Articulation:** Crisp and engaging. Every word pops.
* **Enthusiasm:** Genuine excitement for the material.

### PERFORMANCE NOTES
You love this story and want to share that excitement. Keep
listeners on the edge of their seats with your infectious energy.`,
}

// StyleNames returns the preset names in a stable order for display.
func StyleNames() []string {
	return []string{"classic", "dramatic", "calm", "energetic"}
}

// ValidStyle reports whether name is a known preset.
func ValidStyle(name string) bool {
	_, ok := narratorStyles[name]
	return ok
}

// ResolveStyle collapses the style choice to a single prompt before any
// synthesis call: a custom prompt wins outright, then the named preset, then
// the classic default for unknown names.
func ResolveStyle(preset, custom string) string {
	if custom != "" {
		return custom
	}
	if s, ok := narratorStyles[preset]; ok {
		return s
	}
	return narratorStyles[DefaultStyle]
}
