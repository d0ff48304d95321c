package match

// Points awarded per finishing position. Every participant earns at
// least the participation point, podium finishes earn more.
const (
	PointsFirst         = 10
	PointsSecond        = 5
	PointsThird         = 2
	PointsParticipation = 1
)

// PointsFor maps a finishing position to awarded points. A nil position
// means the player finished without a recorded rank and still earns the
// participation point.
func PointsFor(position *int) int {
	if position == nil {
		return PointsParticipation
	}
	switch *position {
	case 1:
		return PointsFirst
	case 2:
		return PointsSecond
	case 3:
		return PointsThird
	default:
		return PointsParticipation
	}
}
