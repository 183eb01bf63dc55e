package domain

// Entity identifiers are deterministic compounds of the owning contract
// address and the protocol-assigned numeric id, so replaying the same event
// stream always addresses the same rows.

func ConditionEntityID(coreAddress, conditionID string) string {
	return coreAddress + "_" + conditionID
}

func OutcomeEntityID(conditionEntityID, outcomeID string) string {
	return conditionEntityID + "_" + outcomeID
}

func BetEntityID(coreAddress, betID string) string {
	return coreAddress + "_" + betID
}

func SelectionEntityID(betEntityID, conditionID string) string {
	return betEntityID + "_" + conditionID
}

func GameEntityID(liquidityPoolAddress, gameID string) string {
	return liquidityPoolAddress + "_" + gameID
}

func LeagueEntityID(countryEntityID, leagueName string) string {
	return countryEntityID + "_" + leagueName
}

func CountryEntityID(sportID, countryName string) string {
	return sportID + "_" + countryName
}

func ParticipantEntityID(gameEntityID, sortOrder string) string {
	return gameEntityID + "_" + sortOrder
}

func FreebetEntityID(freebetContractAddress, freebetID string) string {
	return freebetContractAddress + "_" + freebetID
}

func PoolNFTEntityID(liquidityPoolAddress, leaf string) string {
	return liquidityPoolAddress + "_" + leaf
}

func AuditEventEntityID(name, txHash, logIndex string) string {
	return name + "_" + txHash + "_" + logIndex
}
