package events

// Event names emitted by the staking contract.
const (
	EventStaked         = "Staked"
	EventStakeIncreased = "StakeIncreased"
	EventLockExtended   = "LockExtended"
	EventWithdrawn      = "Withdrawn"
)

// StakingABI describes the events of the staking contract:
//
//	event Staked(address indexed user, address indexed token, uint256 amount, uint256 lockEnd);
//	event StakeIncreased(address indexed user, address indexed token, uint256 addedAmount, uint256 newTotal);
//	event LockExtended(address indexed user, address indexed token, uint256 newLockEnd);
//	event Withdrawn(address indexed user, address indexed token, uint256 amount);
const StakingABI = `[
	{
		"type": "event",
		"name": "Staked",
		"inputs": [
			{"name": "user", "type": "address", "indexed": true},
			{"name": "token", "type": "address", "indexed": true},
			{"name": "amount", "type": "uint256", "indexed": false},
			{"name": "lockEnd", "type": "uint256", "indexed": false}
		]
	},
	{
		"type": "event",
		"name": "StakeIncreased",
		"inputs": [
			{"name": "user", "type": "address", "indexed": true},
			{"name": "token", "type": "address", "indexed": true},
			{"name": "addedAmount", "type": "uint256", "indexed": false},
			{"name": "newTotal", "type": "uint256", "indexed": false}
		]
	},
	{
		"type": "event",
		"name": "LockExtended",
		"inputs": [
			{"name": "user", "type": "address", "indexed": true},
			{"name": "token", "type": "address", "indexed": true},
			{"name": "newLockEnd", "type": "uint256", "indexed": false}
		]
	},
	{
		"type": "event",
		"name": "Withdrawn",
		"inputs": [
			{"name": "user", "type": "address", "indexed": true},
			{"name": "token", "type": "address", "indexed": true},
			{"name": "amount", "type": "uint256", "indexed": false}
		]
	}
]`
