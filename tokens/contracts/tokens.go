package contracts

type ITokenTracker interface {
	UsedTokens(inputToken int, outputToken int)
	CalculateCost(providerName string, modelName string, inputToken int, outputToken int) float64
	DisplayTokens(providerName string, modelName string)
	GetCurrentTokenUsage() (total int, input int, output int)
	ClearToken()
}
