package dispatch

import (
	"github.com/alebbueno/pedidos-saas-sub000/internal/commit"
	"github.com/alebbueno/pedidos-saas-sub000/internal/draft"
)

// Extra codes produced by the dispatcher itself.
const (
	CodeInvalidDraft = commit.CodeInvalidDraft
	CodeNotConfirmed = "not_confirmed"
)

// Messages are the prompts relayed verbatim to the customer for each code.
var Messages = map[string]string{
	draft.CodeNoItems:                   "Seu pedido ainda não tem itens. O que você gostaria de pedir?",
	draft.CodeMissingProductID:          "Não consegui identificar um dos produtos do pedido. Qual item você deseja?",
	draft.CodePaymentMethodRequired:     "Qual será a forma de pagamento? Aceitamos dinheiro, crédito, débito, PIX ou vale-refeição.",
	draft.CodeDeliveryTypeRequired:      "O pedido será para entrega ou retirada no local?",
	draft.CodeDeliveryAddressRequired:   "Qual é o endereço de entrega?",
	draft.CodeIncompleteAddress:         "O endereço parece incompleto. Informe rua e número, bairro e cidade, separados por vírgula.",
	commit.CodeProductConversionFailed:  "Não encontrei um dos produtos no cardápio. Pode verificar o nome do item?",
	commit.CodeItemsNotPersisted:        "Não foi possível registrar os itens do pedido. Por favor, confirme novamente.",
	commit.CodeCommitInProgress:         "Seu pedido já está sendo processado. Aguarde um instante.",
	commit.CodeCustomerResolutionFailed: "Não consegui identificar seu cadastro. Pode confirmar seu telefone?",
	commit.CodeOrderCreationFailed:      "Não foi possível criar o pedido agora. Por favor, tente novamente.",
	commit.CodeConversationNotFound:     "Não encontrei esta conversa. Vamos começar um novo pedido?",
	commit.CodeConversationClosed:       "Este pedido já foi finalizado. Vamos começar um novo pedido?",
	commit.CodeStoreUnavailable:         "Estamos com instabilidade no momento. Por favor, tente novamente em instantes.",
	CodeInvalidDraft:                    "Alguns dados do pedido estão inválidos. Verifique quantidades, preços e forma de pagamento.",
	CodeNotConfirmed:                    "Tudo bem, o pedido ainda não foi confirmado. Deseja alterar algo?",
}

const (
	msgDraftSaved       = "Rascunho do pedido atualizado."
	msgOrderConfirmed   = "Pedido #%s confirmado!"
	msgAlreadyConfirmed = "Pedido #%s já foi confirmado."
)

// message returns the prompt for code, falling back to the generic store failure.
func message(code string) string {
	if m, ok := Messages[code]; ok {
		return m
	}
	return Messages[commit.CodeStoreUnavailable]
}
