package extraction

import (
	"fmt"
	"strings"
)

// TemplateInsights is the deterministic fallback narrative generator. Each
// present metric is thresholded independently and contributes one sentence,
// in fixed priority order: BMI, body fat, visceral fat, muscle rate. Input
// order never changes the output. An empty extraction yields an empty
// string; a populated extraction that trips no threshold still gets the
// generic recorded sentence.
func TemplateInsights(data *Extracted) string {
	if data == nil || !data.HasData() {
		return ""
	}

	var sentences []string

	if data.BMI != nil {
		v := *data.BMI
		switch {
		case v < 18.5:
			sentences = append(sentences, fmt.Sprintf("Seu IMC de %.1f está abaixo da faixa saudável; considere acompanhamento nutricional.", v))
		case v < 25:
			sentences = append(sentences, fmt.Sprintf("Seu IMC de %.1f está dentro da faixa saudável.", v))
		case v < 30:
			sentences = append(sentences, fmt.Sprintf("Seu IMC de %.1f indica sobrepeso; manter o protocolo tende a melhorar esse indicador.", v))
		default:
			sentences = append(sentences, fmt.Sprintf("Seu IMC de %.1f está na faixa de obesidade; acompanhamento próximo é recomendado.", v))
		}
	}

	if data.BodyFatPercent != nil {
		v := *data.BodyFatPercent
		switch {
		case v < 10:
			sentences = append(sentences, fmt.Sprintf("Percentual de gordura de %.1f%% está muito baixo.", v))
		case v <= 25:
			sentences = append(sentences, fmt.Sprintf("Percentual de gordura de %.1f%% está em nível adequado.", v))
		case v <= 32:
			sentences = append(sentences, fmt.Sprintf("Percentual de gordura de %.1f%% está acima do ideal; a tendência deve cair ao longo das semanas.", v))
		default:
			sentences = append(sentences, fmt.Sprintf("Percentual de gordura de %.1f%% está elevado; priorize as orientações do protocolo.", v))
		}
	}

	if data.VisceralFat != nil {
		v := *data.VisceralFat
		switch {
		case v <= 9:
			sentences = append(sentences, fmt.Sprintf("Gordura visceral em nível %.0f está na faixa saudável.", v))
		case v <= 14:
			sentences = append(sentences, fmt.Sprintf("Gordura visceral em nível %.0f merece atenção.", v))
		default:
			sentences = append(sentences, fmt.Sprintf("Gordura visceral em nível %.0f está alta; este é o indicador mais importante a reduzir.", v))
		}
	}

	if data.MuscleRatePercent != nil {
		v := *data.MuscleRatePercent
		switch {
		case v < 25:
			sentences = append(sentences, fmt.Sprintf("Taxa muscular de %.1f%% está baixa; inclua treino de força na rotina.", v))
		default:
			sentences = append(sentences, fmt.Sprintf("Taxa muscular de %.1f%% está preservada; continue com a rotina atual.", v))
		}
	}

	if len(sentences) == 0 {
		return "Medição registrada com sucesso."
	}
	return strings.Join(sentences, " ")
}
