package assistant

import (
	"fmt"
	"strings"

	"eventhorizon/internal/catalog"
	"eventhorizon/models"
)

const instructionsHeader = `Você é um concierge prestativo e entusiasmado para um aplicativo de ingressos chamado "EventHorizon".
Seu objetivo é ajudar os usuários a encontrar o evento perfeito na lista a seguir:
`

const instructionsRules = `
Regras:
1. Recomende apenas eventos da lista fornecida.
2. Mantenha as respostas concisas (menos de 50 palavras) a menos que peçam detalhes.
3. Seja persuasivo e destaque a vibe do evento.
4. Se o usuário perguntar sobre carteira ou ingressos, explique que eles podem gerenciá-los nas respectivas abas do app.
5. Responda sempre em Português do Brasil de forma natural e amigável.
`

// EventLine renders one event for the concierge context.
func EventLine(ev models.Event) string {
	return fmt.Sprintf("- %s (%s): %s em %s. A partir de R$%s. Local: %s",
		ev.Title,
		ev.Category,
		ev.Description,
		ev.Date.Format("02/01/2006"),
		catalog.MinPrice(ev).String(),
		ev.Location,
	)
}

func BuildInstructions(events []models.Event) string {
	var sb strings.Builder
	sb.WriteString(instructionsHeader)
	for _, ev := range events {
		sb.WriteString(EventLine(ev))
		sb.WriteByte('\n')
	}
	sb.WriteString(instructionsRules)
	return sb.String()
}
