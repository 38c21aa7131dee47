package feature

// NumChannels is the number of feature planes per map cell.
const NumChannels = 11

// Channel indices in the (C, H, W) frame layout. "Own"/"enemy" are relative
// to the encoding player, so the same network weights serve both sides.
const (
	ChanOwnBase = iota
	ChanOwnWorker
	ChanOwnMelee
	ChanOwnRanged
	ChanEnemyBase
	ChanEnemyWorker
	ChanEnemyMelee
	ChanEnemyRanged
	ChanResource
	ChanHP      // HP ratio of the unit occupying the cell
	ChanVisible // encoding player's fog-of-war mask
)
