package nakama

// MatchNameShipIt is the match handler name registered with the runtime.
const MatchNameShipIt = "shipit"

// RpcFindMatchName is the RPC id clients call to find or create a lobby.
const RpcFindMatchName = "find_match"

// Client -> server opcodes.
const (
	OpCodeStartGame      int64 = 1
	OpCodeDrawCard       int64 = 2
	OpCodeAssignResource int64 = 3
	OpCodeEndTurn        int64 = 4
	OpCodeGetStats       int64 = 5
)

// Server -> client opcodes.
const (
	OpCodeLobbyState        int64 = 100
	OpCodeGameStarted       int64 = 101
	OpCodeHandDealt         int64 = 102
	OpCodeCardDrawn         int64 = 103
	OpCodeResourceAssigned  int64 = 104
	OpCodeFeatureCompleted  int64 = 105
	OpCodeFeatureIntroduced int64 = 106
	OpCodeTurnEnded         int64 = 107
	OpCodeRoundAdvanced     int64 = 108
	OpCodeEffectResolved    int64 = 109
	OpCodeGameEnded         int64 = 110
	OpCodeGameStats         int64 = 111
	OpCodeGameError         int64 = 400
)
