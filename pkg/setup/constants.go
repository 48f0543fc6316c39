package setup

const (
	MethodSetTeacher = "setTeacher"
	MethodSetRandom  = "setRandomTickersAndSupply"

	PointTokenCtorArity = 3
	DummyTokenCtorArity = 3
	EvaluatorCtorArity  = 5

	CmdHardhatVerify = "npx hardhat verify --network"
	MsgPoolReminder  = "Don't forget to deploy a Uniswap v4 pool with WETH and DummyToken"
)
