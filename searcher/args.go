package searcher

// Hyperparameters for MCTS

const C_SQUARED = 2.0

// Goals are scaled by MaxGoal into rewards in [0, 1]
const MaxGoal = 100.0
const LOSS = 0.0

// MaxCutoff bounds the moves of one playout
const MaxCutoff = 10000
