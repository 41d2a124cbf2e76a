package world

import "github.com/l1jgo/followctl/internal/data"

// Actor is the runtime record of a party member. Pose switching keeps the
// original image name in poseCore so any pose can be undone.
type Actor struct {
	ID      int32
	Name    string
	ClassID int32

	characterName   string
	characterIndex  int
	poseCore        string
	alwaysStepAnime bool
}

func NewActor(t *data.ActorTemplate) *Actor {
	return &Actor{
		ID:              t.ActorID,
		Name:            t.Name,
		ClassID:         t.ClassID,
		characterName:   t.CharacterName,
		characterIndex:  t.CharacterIndex,
		poseCore:        t.CharacterName,
		alwaysStepAnime: t.AlwaysStepAnime,
	}
}

func (a *Actor) CharacterName() string { return a.characterName }
func (a *Actor) CharacterIndex() int   { return a.characterIndex }
func (a *Actor) PoseCore() string      { return a.poseCore }

// SetCharacterImage changes the image and makes it the new pose core.
func (a *Actor) SetCharacterImage(name string, index int) {
	a.characterName = name
	a.characterIndex = index
	a.poseCore = name
}

// SetPose switches the image to "<core>_<pose>".
func (a *Actor) SetPose(pose string) {
	if a.poseCore == "" {
		a.poseCore = a.characterName
	}
	a.characterName = a.poseCore + "_" + pose
}

// ResetPose restores the core image.
func (a *Actor) ResetPose() {
	if a.poseCore != "" {
		a.characterName = a.poseCore
	}
}

func (a *Actor) AlwaysStepAnime() bool { return a.alwaysStepAnime }

func (a *Actor) SetAlwaysStepAnime(on bool) { a.alwaysStepAnime = on }
