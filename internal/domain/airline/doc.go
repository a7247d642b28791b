// Package airline implements the airline admission governance rules.
//
// Airlines enter the registry through a funded sponsor. Below the
// immediate-admission ceiling a sponsorship admits the candidate outright;
// above it the candidate is nominated and admission waits for distinct
// funded-airline votes to reach the threshold. Funding is a one-way
// transition that escrows the deposit into the collective pool and unlocks
// airline privileges.
package airline
